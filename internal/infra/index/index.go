package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

// DeriveFunc picks an identifier given a membership test over the index.
type DeriveFunc func(known func(id string) bool) (string, error)

// Store is the persisted set of allocated identifiers.
type Store interface {
	Contains(ctx context.Context, id string) (bool, error)
	Identifiers(ctx context.Context) ([]string, error)
	// Replace rewrites the whole set.
	Replace(ctx context.Context, ids []string) error
	// Reserve runs derive against the current set and records the result.
	Reserve(ctx context.Context, derive DeriveFunc) (string, error)
	Close() error
}

// Open returns the store selected by cfg.
func Open(cfg domain.RepoConfig, logger *zap.Logger) (Store, error) {
	cfg = cfg.WithDefaults()
	switch cfg.IndexBackend {
	case domain.IndexBackendFile:
		return NewFileIndex(cfg.IndexPath, logger), nil
	case domain.IndexBackendBolt:
		return OpenBoltIndex(cfg.IndexPath, logger)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}
