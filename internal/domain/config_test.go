package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepoConfig_WithDefaultsIdempotent(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		cfg       RepoConfig
		root      string
		indexPath string
	}{
		{
			name:      "relative root",
			cfg:       RepoConfig{Root: "repo"},
			root:      filepath.Join(wd, "repo"),
			indexPath: filepath.Join(wd, "repo", DefaultIndexFile),
		},
		{
			name:      "relative root and index path",
			cfg:       RepoConfig{Root: "repo", IndexPath: "ids.txt"},
			root:      filepath.Join(wd, "repo"),
			indexPath: filepath.Join(wd, "repo", "ids.txt"),
		},
		{
			name:      "empty root with bolt",
			cfg:       RepoConfig{IndexBackend: IndexBackendBolt},
			root:      wd,
			indexPath: filepath.Join(wd, DefaultBoltIndexFile),
		},
		{
			name:      "absolute index path",
			cfg:       RepoConfig{Root: "/repo", IndexPath: "/var/ids.txt"},
			root:      "/repo",
			indexPath: "/var/ids.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.cfg.WithDefaults()
			require.Equal(t, tt.root, once.Root)
			require.Equal(t, tt.indexPath, once.IndexPath)

			thrice := once.WithDefaults().WithDefaults()
			require.Equal(t, once, thrice)
		})
	}
}

func TestSettings_WithDefaultsKeepsIndexPath(t *testing.T) {
	settings := Settings{Repo: RepoConfig{Root: "repo"}}.WithDefaults()
	again := settings.WithDefaults()
	require.Equal(t, settings.Repo.IndexPath, again.Repo.IndexPath)
	require.Equal(t, DefaultMetricsAddress, again.MetricsAddress)
}
