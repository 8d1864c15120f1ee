package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

// Store is the artifact storage capability. Exactly one implementation is
// selected at process start and injected into callers; nothing resolves a
// backend at call time.
type Store interface {
	// Put writes the named object and returns its storage path.
	Put(ctx context.Context, name string, contents io.Reader) (string, error)
	// Open returns a reader over the named object.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the named object. Missing objects are not an error.
	Delete(ctx context.Context, name string) error
	// URL returns the client-facing URL for the named object.
	URL(name string) string
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources held by the store.
	Close() error
}

// New selects the configured backend.
func New(ctx context.Context, cfg config.StorageConfig, gcp config.GCPConfig, logg *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return NewLocalStore(ctx, cfg, logg)
	case config.StorageBackendGCS:
		return NewGCSStore(ctx, cfg, gcp, logg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
