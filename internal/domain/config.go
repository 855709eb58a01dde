package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RepoConfig scopes one invocation to a repository.
type RepoConfig struct {
	Root           string
	IndexPath      string
	IndexBackend   IndexBackend
	MaxWindowShift int
}

// NewRepoConfig fills defaults relative to root.
func NewRepoConfig(root string) RepoConfig {
	cfg := RepoConfig{Root: root}
	return cfg.WithDefaults()
}

// WithDefaults returns cfg with empty fields set to their defaults. Root
// is made absolute so a relative index path resolves once.
func (c RepoConfig) WithDefaults() RepoConfig {
	if c.Root == "" {
		c.Root = "."
	}
	if root, err := filepath.Abs(c.Root); err == nil {
		c.Root = root
	}
	if c.IndexBackend == "" {
		c.IndexBackend = DefaultIndexBackend
	}
	if c.IndexPath == "" {
		if c.IndexBackend == IndexBackendBolt {
			c.IndexPath = filepath.Join(c.Root, DefaultBoltIndexFile)
		} else {
			c.IndexPath = filepath.Join(c.Root, DefaultIndexFile)
		}
	} else if !filepath.IsAbs(c.IndexPath) {
		c.IndexPath = filepath.Join(c.Root, c.IndexPath)
	}
	if c.MaxWindowShift <= 0 {
		c.MaxWindowShift = DefaultMaxWindowShift
	}
	return c
}

func (c RepoConfig) Validate() error {
	var errs []string
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, "root is required")
	}
	switch c.IndexBackend {
	case IndexBackendFile, IndexBackendBolt:
	default:
		errs = append(errs, fmt.Sprintf("indexBackend must be %s or %s", IndexBackendFile, IndexBackendBolt))
	}
	if c.MaxWindowShift < 0 || c.MaxWindowShift > DefaultMaxWindowShift {
		errs = append(errs, fmt.Sprintf("maxWindowShift must be between 0 and %d", DefaultMaxWindowShift))
	}
	if len(errs) > 0 {
		return &ConstraintViolationError{Field: "config", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// Rel returns path relative to the repository root when possible.
func (c RepoConfig) Rel(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Settings is the full configuration of one CLI invocation.
type Settings struct {
	Repo           RepoConfig
	MetricsAddress string
	WatchDebounce  time.Duration
}

// WithDefaults returns s with empty fields set to their defaults.
func (s Settings) WithDefaults() Settings {
	s.Repo = s.Repo.WithDefaults()
	if s.MetricsAddress == "" {
		s.MetricsAddress = DefaultMetricsAddress
	}
	if s.WatchDebounce <= 0 {
		s.WatchDebounce = DefaultWatchDebounce
	}
	return s
}
