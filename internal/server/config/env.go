package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mygardenbook/gardenbook/internal/flagx"
)

// parseEnv overlays environment variables onto config. A dotenv file named
// by -env is loaded first (it must exist); otherwise ./.env is loaded when
// present. Variables already set in the process environment win over the file.
//
// Recognized variables:
//
//	PORT                     HTTP port (bind address becomes ":" + PORT)
//	GRPC_ADDR                gRPC health bind address
//	DATABASE_URL             PostgreSQL DSN
//	JWT_SECRET_KEY           admin token secret
//	FRONTEND_URL             base URL of public detail pages
//	CORS_ALLOWED_ORIGINS     comma separated origin list
//	ASSET_DRIVER             s3 | memory
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_PUBLIC_BASE_URL
//	SCAN_CODE_POLICY         rollback | degraded
//	MAX_IMAGE_BYTES          upload ceiling in bytes
//	LOG_LEVEL                debug | info | warn | error
func parseEnv(config *Config) {
	if err := applyEnv(config, flagx.EnvFileFlag()); err != nil {
		panic(err)
	}
}

func applyEnv(config *Config, path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return err
		}
	} else {
		_ = godotenv.Load()
	}

	if port := os.Getenv("PORT"); port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET_KEY")
	envString(&config.FrontendURL, "FRONTEND_URL")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = splitList(origins)
	}

	envString(&config.AssetDriver, "ASSET_DRIVER")
	envString(&config.S3RootUser, "S3_ACCESS_KEY")
	envString(&config.S3RootPassword, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	envString(&config.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")

	envString(&config.ScanCodePolicy, "SCAN_CODE_POLICY")
	if v := os.Getenv("MAX_IMAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_IMAGE_BYTES: %w", err)
		}
		config.MaxImageBytes = n
	}

	envString(&config.LogLevel, "LOG_LEVEL")
	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
