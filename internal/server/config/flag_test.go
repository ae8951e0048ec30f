package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "secret", "-t", "60",
			"-u", "user", "-p", "password", "-b", "bucket", "-r", "eu-west-1", "-e", "http://endpoint",
			"-f", "https://front.example", "-m", "memory", "-q", "degraded", "-l", "debug",
			"-c", "ignored.json",
		}, expected: &Config{
			EndpointAddrHTTP:            "127.0.0.1:9090",
			EndpointAddrGRPC:            ":6000",
			DatabaseDSN:                 "db",
			SecretKey:                   "secret",
			AccessTokenValidityDuration: 60 * time.Minute,
			S3RootUser:                  "user",
			S3RootPassword:              "password",
			S3Bucket:                    "bucket",
			S3Region:                    "eu-west-1",
			S3BaseEndpoint:              "http://endpoint",
			FrontendURL:                 "https://front.example",
			AssetDriver:                 "memory",
			ScanCodePolicy:              "degraded",
			LogLevel:                    "debug",
		}},
		{name: "bad int", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
