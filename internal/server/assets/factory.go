package assets

import (
	"context"
	"fmt"

	"github.com/mygardenbook/gardenbook/internal/server/config"
)

// Open selects the Store backend named by cfg.AssetDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.AssetDriver {
	case config.AssetDriverMemory:
		return NewMemoryStore(cfg.S3PublicBaseURL), nil
	case config.AssetDriverS3, "":
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3BaseEndpoint,
			AccessKeyID:     cfg.S3RootUser,
			SecretAccessKey: cfg.S3RootPassword,
			PathStyle:       cfg.S3PathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown asset driver %q", cfg.AssetDriver)
	}
}
