package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

func TestConfigLoader_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	settings, err := NewConfigLoader(zap.NewNop()).Load(context.Background(), nil, "")
	require.NoError(t, err)
	require.Equal(t, wd, settings.Repo.Root)
	require.Equal(t, domain.IndexBackendFile, settings.Repo.IndexBackend)
	require.Equal(t, filepath.Join(wd, domain.DefaultIndexFile), settings.Repo.IndexPath)
	require.Equal(t, domain.DefaultMaxWindowShift, settings.Repo.MaxWindowShift)
	require.Equal(t, domain.DefaultMetricsAddress, settings.MetricsAddress)
	require.Equal(t, domain.DefaultWatchDebounce, settings.WatchDebounce)
}

func TestConfigLoader_YAMLWithEnvExpansion(t *testing.T) {
	root := t.TempDir()
	t.Setenv("INDEX_BACKEND", "bolt")
	path := filepath.Join(root, ".capanno.yaml")
	writeFile(t, path, `
root: `+root+`
indexBackend: ${INDEX_BACKEND}
metrics:
  listenAddress: ${METRICS_ADDR:-127.0.0.1:9500}
watch:
  debounceMillis: 250
`)

	settings, err := NewConfigLoader(zap.NewNop()).Load(context.Background(), NewConfigViper(), path)
	require.NoError(t, err)
	require.Equal(t, domain.IndexBackendBolt, settings.Repo.IndexBackend)
	require.Equal(t, filepath.Join(root, domain.DefaultBoltIndexFile), settings.Repo.IndexPath)
	require.Equal(t, "127.0.0.1:9500", settings.MetricsAddress)
	require.Equal(t, 250*time.Millisecond, settings.WatchDebounce)
}

func TestConfigLoader_TOMLAndEnvOverride(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".capanno.toml")
	writeFile(t, path, `
maxWindowShift = 12
indexPath = "ids.txt"

[metrics]
listenAddress = "127.0.0.1:9999"
`)
	require.Equal(t, path, FindConfig(root))

	settings, err := NewConfigLoader(zap.NewNop()).Load(context.Background(), NewConfigViper(), path)
	require.NoError(t, err)
	require.Equal(t, 12, settings.Repo.MaxWindowShift)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(wd, "ids.txt"), settings.Repo.IndexPath)
	require.Equal(t, "127.0.0.1:9999", settings.MetricsAddress)

	t.Setenv("CAPANNO_MAXWINDOWSHIFT", "5")
	settings, err = NewConfigLoader(zap.NewNop()).Load(context.Background(), NewConfigViper(), path)
	require.NoError(t, err)
	require.Equal(t, 5, settings.Repo.MaxWindowShift)
}

func TestConfigLoader_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".capanno.yaml")
	writeFile(t, path, "indexBackend: sqlite\nmaxWindowShift: 40\n")

	_, err := NewConfigLoader(zap.NewNop()).Load(context.Background(), NewConfigViper(), path)
	var violation *domain.ConstraintViolationError
	require.ErrorAs(t, err, &violation)
	require.Contains(t, violation.Message, "indexBackend")
	require.Contains(t, violation.Message, "maxWindowShift")
}

func TestFindConfig_PrefersYAML(t *testing.T) {
	root := t.TempDir()
	require.Empty(t, FindConfig(root))
	writeFile(t, filepath.Join(root, ".capanno.toml"), "")
	writeFile(t, filepath.Join(root, ".capanno.yaml"), "")
	require.Equal(t, filepath.Join(root, ".capanno.yaml"), FindConfig(root))
}
