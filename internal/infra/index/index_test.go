package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	bolt, err := OpenBoltIndex(filepath.Join(dir, "bolt", "tools_index.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]Store{
		"file": NewFileIndex(filepath.Join(dir, "file", ".cache", "tools_index"), zap.NewNop()),
		"bolt": bolt,
	}
}

func TestStore_ReserveContainsReplace(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := store.Contains(ctx, "TL_ec2a8d.8b")
			require.NoError(t, err)
			require.False(t, ok)

			add(t, store, "TL_ec2a8d.8b")
			add(t, store, "TL_ec2a8d_1b.8b")

			ok, err = store.Contains(ctx, "TL_ec2a8d_1b.8b")
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, store.Replace(ctx, []string{"ST_a0678b.e4", "WF_ed5a10.e4"}))
			ids, err := store.Identifiers(ctx)
			require.NoError(t, err)
			sort.Strings(ids)
			require.Equal(t, []string{"ST_a0678b.e4", "WF_ed5a10.e4"}, ids)

			var malformed *domain.MalformedIdentifierError
			_, err = store.Reserve(ctx, fixed("not-an-id"))
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestFileIndex_CreatedEmptyWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cache", "tools_index")
	idx := NewFileIndex(path, zap.NewNop())

	ids, err := idx.Identifiers(context.Background())
	require.NoError(t, err)
	require.Empty(t, ids)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestFileIndex_AppendsAfterUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools_index")
	require.NoError(t, os.WriteFile(path, []byte("TL_ec2a8d.8b"), 0o644))

	idx := NewFileIndex(path, zap.NewNop())
	add(t, idx, "TL_a6be17.8e")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d.8b\nTL_a6be17.8e\n", string(data))
}

func TestStore_ReserveSkipsKnown(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			add(t, store, "TL_000000.00")
			id, err := store.Reserve(ctx, firstFree)
			require.NoError(t, err)
			require.Equal(t, "TL_000000.01", id)

			ok, err := store.Contains(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestBoltIndex_ConcurrentReserveNeverRepeats(t *testing.T) {
	store, err := OpenBoltIndex(filepath.Join(t.TempDir(), "tools_index.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan string, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Reserve(context.Background(), firstFree)
			if err == nil {
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]struct{}{}
	for id := range results {
		_, dup := seen[id]
		require.False(t, dup, "identifier %s reserved twice", id)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, workers)
}

func TestBoltIndex_ClosedStore(t *testing.T) {
	store, err := OpenBoltIndex(filepath.Join(t.TempDir(), "tools_index.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Contains(context.Background(), "TL_ec2a8d.8b")
	require.ErrorIs(t, err, domain.ErrIndexClosed)
}

func TestOpen_SelectsBackend(t *testing.T) {
	root := t.TempDir()
	store, err := Open(domain.RepoConfig{Root: root}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &FileIndex{}, store)
	require.Equal(t, filepath.Join(root, domain.DefaultIndexFile), store.(*FileIndex).Path())

	store, err = Open(domain.RepoConfig{Root: root, IndexBackend: domain.IndexBackendBolt}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &BoltIndex{}, store)
	require.NoError(t, store.Close())
}

func fixed(id string) DeriveFunc {
	return func(func(string) bool) (string, error) {
		return id, nil
	}
}

func add(t *testing.T, store Store, id string) {
	t.Helper()
	got, err := store.Reserve(context.Background(), fixed(id))
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func firstFree(known func(string) bool) (string, error) {
	for i := 0; i < 256; i++ {
		candidate := fmt.Sprintf("TL_000000.%02x", i)
		if !known(candidate) {
			return candidate, nil
		}
	}
	return "", domain.ErrWindowExhausted
}
