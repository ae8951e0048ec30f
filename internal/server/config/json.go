package config

import (
	"encoding/json"
	"os"

	"github.com/mygardenbook/gardenbook/internal/flagx"
	"github.com/mygardenbook/gardenbook/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from "false"/"0".
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`

	AssetDriver     string `json:"asset_driver"`
	AssetRootFolder string `json:"asset_root_folder"`
	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
	S3PathStyle     *bool  `json:"s3_path_style"`

	FrontendURL          string   `json:"frontend_url"`
	AllowedOrigins       []string `json:"allowed_origins"`
	PreviewOriginPattern string   `json:"preview_origin_pattern"`

	MaxImageBytes int64  `json:"max_image_bytes"`
	UploadDir     string `json:"upload_dir"`

	ScanCodePolicy  string         `json:"scan_code_policy"`
	ScanCodeSize    int            `json:"scan_code_size"`
	DestroyAttempts uint           `json:"destroy_attempts"`
	DestroyDelay    timex.Duration `json:"destroy_delay"`

	LogLevel string `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Fields missing from the file keep their current value. An
// unreadable or malformed file panics: the server must not start on a
// half-read configuration.
func parseJson(config *Config) {
	if err := applyJSONFile(config, flagx.ConfigFileFlag()); err != nil {
		panic(err)
	}
}

func applyJSONFile(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}

	setString(&config.AssetDriver, c.AssetDriver)
	setString(&config.AssetRootFolder, c.AssetRootFolder)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	if c.S3PathStyle != nil {
		config.S3PathStyle = *c.S3PathStyle
	}

	setString(&config.FrontendURL, c.FrontendURL)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.PreviewOriginPattern, c.PreviewOriginPattern)

	if c.MaxImageBytes > 0 {
		config.MaxImageBytes = c.MaxImageBytes
	}
	setString(&config.UploadDir, c.UploadDir)

	setString(&config.ScanCodePolicy, c.ScanCodePolicy)
	if c.ScanCodeSize > 0 {
		config.ScanCodeSize = c.ScanCodeSize
	}
	if c.DestroyAttempts > 0 {
		config.DestroyAttempts = c.DestroyAttempts
	}
	if c.DestroyDelay.Duration > 0 {
		config.DestroyDelay = c.DestroyDelay.Duration
	}

	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
