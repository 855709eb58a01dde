package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. CAPANNO_INDEXBACKEND.
const EnvPrefix = "CAPANNO"

type rawSettings struct {
	Root           string     `mapstructure:"root"`
	IndexPath      string     `mapstructure:"indexPath"`
	IndexBackend   string     `mapstructure:"indexBackend"`
	MaxWindowShift int        `mapstructure:"maxWindowShift"`
	Metrics        rawMetrics `mapstructure:"metrics"`
	Watch          rawWatch   `mapstructure:"watch"`
}

type rawMetrics struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

type rawWatch struct {
	DebounceMillis int `mapstructure:"debounceMillis"`
}

// NewConfigViper returns a viper instance with the repository defaults and
// environment overrides registered.
func NewConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("root", ".")
	v.SetDefault("indexPath", "")
	v.SetDefault("indexBackend", string(domain.DefaultIndexBackend))
	v.SetDefault("maxWindowShift", domain.DefaultMaxWindowShift)
	v.SetDefault("metrics.listenAddress", domain.DefaultMetricsAddress)
	v.SetDefault("watch.debounceMillis", int(domain.DefaultWatchDebounce/time.Millisecond))
	return v
}

// FindConfig returns the repository config file under root, preferring
// .capanno.yaml over .capanno.toml. It returns "" when neither exists.
func FindConfig(root string) string {
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		path := filepath.Join(root, domain.DefaultConfigName+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

type ConfigLoader struct {
	logger *zap.Logger
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	if logger == nil {
		return &ConfigLoader{logger: zap.NewNop()}
	}
	return &ConfigLoader{logger: logger.Named("config")}
}

// Load merges the config file at path (if any) into v and decodes the
// result. Values already bound in v from flags or the environment win over
// the file.
func (l *ConfigLoader) Load(ctx context.Context, v *viper.Viper, path string) (domain.Settings, error) {
	if v == nil {
		v = NewConfigViper()
	}
	if path != "" {
		if err := l.mergeFile(v, path); err != nil {
			return domain.Settings{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	var raw rawSettings
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Settings{}, fmt.Errorf("decode config: %w", err)
	}
	settings, errs := normalizeSettings(raw)
	if len(errs) > 0 {
		return domain.Settings{}, &domain.ConstraintViolationError{Path: path, Field: "config", Message: strings.Join(errs, "; ")}
	}
	return settings, nil
}

func (l *ConfigLoader) mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if filepath.Ext(path) == ".toml" {
		var values map[string]any
		if err := toml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		return nil
	}

	expanded, missing, err := expandConfigEnv(data)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
	}
	if err := v.MergeConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func normalizeSettings(raw rawSettings) (domain.Settings, []string) {
	var errs []string
	backend := domain.IndexBackend(strings.ToLower(strings.TrimSpace(raw.IndexBackend)))
	repo := domain.RepoConfig{
		Root:           strings.TrimSpace(raw.Root),
		IndexPath:      strings.TrimSpace(raw.IndexPath),
		IndexBackend:   backend,
		MaxWindowShift: raw.MaxWindowShift,
	}
	if err := repo.WithDefaults().Validate(); err != nil {
		var violation *domain.ConstraintViolationError
		if errors.As(err, &violation) {
			errs = append(errs, violation.Message)
		} else {
			errs = append(errs, err.Error())
		}
	}
	if raw.Watch.DebounceMillis < 0 {
		errs = append(errs, "watch.debounceMillis must be >= 0")
	}
	settings := domain.Settings{
		Repo:           repo,
		MetricsAddress: strings.TrimSpace(raw.Metrics.ListenAddress),
		WatchDebounce:  time.Duration(raw.Watch.DebounceMillis) * time.Millisecond,
	}
	return settings.WithDefaults(), errs
}
