package storage

import (
	"context"
	"fmt"

	"github.com/booknest/apiserver/config"
)

// NewObjectStore selects and constructs the configured cover store.
// Backend "none" returns nil, which disables cover archiving.
func NewObjectStore(ctx context.Context, cfg config.CoversConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "minio":
		return NewMinioStore(cfg.Minio)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown covers backend %q", cfg.Backend)
	}
}
