// Package artifactstore archives rendered certificate previews.
package artifactstore

import (
	"context"
	"fmt"
	"time"
)

// Store persists preview artifacts under opaque keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// ObjectKey returns the archive key of a certificate preview.
// Format: certificates/<tenant>/YYYY/MM/<certificate id><ext>
func ObjectKey(tenantID uint, certificateID, ext string, at time.Time) string {
	return fmt.Sprintf("certificates/%d/%04d/%02d/%s%s", tenantID, at.Year(), int(at.Month()), certificateID, ext)
}

// New returns the configured store, or nil when archiving is disabled.
func New(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStore(cfg.Dir), nil
	case BackendS3:
		s3Store, err := NewS3Store(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	case BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown artifact store %q", cfg.Backend)
	}
}
