package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

var identifiersBucket = []byte("identifiers")

// BoltIndex keeps identifiers in a bbolt database. Reserve runs the whole
// check-and-insert inside one write transaction, which bbolt serializes
// across processes through its file lock.
type BoltIndex struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	logger *zap.Logger
	closed bool
}

func OpenBoltIndex(path string, logger *zap.Logger) (*BoltIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure index dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(identifiersBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure index schema: %w", err)
	}
	return &BoltIndex{db: db, path: trimmed, logger: logger.Named("index")}, nil
}

func (b *BoltIndex) Contains(ctx context.Context, id string) (bool, error) {
	var found bool
	err := b.view(ctx, func(bucket *bolt.Bucket) error {
		found = bucket.Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

func (b *BoltIndex) Identifiers(ctx context.Context) ([]string, error) {
	var ids []string
	err := b.view(ctx, func(bucket *bolt.Bucket) error {
		return bucket.ForEach(func(key, _ []byte) error {
			ids = append(ids, string(key))
			return nil
		})
	})
	return ids, err
}

func (b *BoltIndex) Replace(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := domainIdentifier(id); err != nil {
			return err
		}
	}
	return b.updateTx(ctx, func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(identifiersBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(identifiersBucket)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := putIdentifier(bucket, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltIndex) Reserve(ctx context.Context, derive DeriveFunc) (string, error) {
	var reserved string
	err := b.update(ctx, func(bucket *bolt.Bucket) error {
		id, err := derive(func(candidate string) bool {
			return bucket.Get([]byte(candidate)) != nil
		})
		if err != nil {
			return err
		}
		if err := domainIdentifier(id); err != nil {
			return err
		}
		reserved = id
		return putIdentifier(bucket, id)
	})
	if err != nil {
		return "", err
	}
	b.logger.Debug("identifier indexed", zap.String("identifier", reserved), zap.String("path", b.path))
	return reserved, nil
}

func (b *BoltIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *BoltIndex) view(ctx context.Context, fn func(*bolt.Bucket) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return domain.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(identifiersBucket))
	})
}

func (b *BoltIndex) update(ctx context.Context, fn func(*bolt.Bucket) error) error {
	return b.updateTx(ctx, func(tx *bolt.Tx) error {
		return fn(tx.Bucket(identifiersBucket))
	})
}

func (b *BoltIndex) updateTx(ctx context.Context, fn func(*bolt.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return domain.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(fn)
}

func putIdentifier(bucket *bolt.Bucket, id string) error {
	return bucket.Put([]byte(id), []byte(time.Now().UTC().Format(time.RFC3339)))
}
