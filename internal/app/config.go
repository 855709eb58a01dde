package app

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
)

// Flag names bound onto config keys.
const (
	FlagRepo           = "repo"
	FlagConfig         = "config"
	FlagIndex          = "index"
	FlagIndexPath      = "index-path"
	FlagMaxWindowShift = "max-window-shift"
	FlagMetricsListen  = "metrics-listen"
)

var flagKeys = map[string]string{
	FlagRepo:           "root",
	FlagIndex:          "indexBackend",
	FlagIndexPath:      "indexPath",
	FlagMaxWindowShift: "maxWindowShift",
	FlagMetricsListen:  "metrics.listenAddress",
}

// ConfigOptions selects where settings come from.
type ConfigOptions struct {
	// Flags holds the command line flags. Flags that were set win over the
	// environment and the config file.
	Flags *pflag.FlagSet
	// ConfigPath overrides config file discovery under the repository root.
	ConfigPath string
}

// LoadSettings merges defaults, the repository config file, CAPANNO_*
// environment variables and command line flags.
func LoadSettings(ctx context.Context, opts ConfigOptions, logger *zap.Logger) (domain.Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := catalog.NewConfigViper()
	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return domain.Settings{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	path := opts.ConfigPath
	if path == "" {
		path = catalog.FindConfig(v.GetString("root"))
	}
	settings, err := catalog.NewConfigLoader(logger).Load(ctx, v, path)
	if err != nil {
		return domain.Settings{}, err
	}
	logger.Debug("settings loaded",
		zap.String("config", path),
		zap.String("root", settings.Repo.Root),
		zap.String("indexBackend", string(settings.Repo.IndexBackend)),
		zap.String("indexPath", settings.Repo.IndexPath),
	)
	return settings, nil
}
