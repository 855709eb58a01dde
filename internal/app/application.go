package app

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
	"github.com/truwl/capanno-utils/internal/infra/ids"
	"github.com/truwl/capanno-utils/internal/infra/index"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// Application holds the repository services used by the CLI.
type Application struct {
	settings domain.Settings
	layout   catalog.Layout

	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   domain.Metrics
	health    *telemetry.HealthTracker
	store     index.Store
	allocator *ids.Allocator
	loader    *catalog.Loader
	writer    *catalog.Writer
	builder   *contentmap.Builder
	promoter  *contentmap.Promoter
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Settings  domain.Settings
	Layout    catalog.Layout
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   domain.Metrics
	Health    *telemetry.HealthTracker
	Store     index.Store
	Allocator *ids.Allocator
	Loader    *catalog.Loader
	Writer    *catalog.Writer
	Builder   *contentmap.Builder
	Promoter  *contentmap.Promoter
}

// NewApplication constructs the application from its wired dependencies.
func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		settings:  opts.Settings.WithDefaults(),
		layout:    opts.Layout,
		logger:    logger.Named("app"),
		registry:  opts.Registry,
		metrics:   opts.Metrics,
		health:    opts.Health,
		store:     opts.Store,
		allocator: opts.Allocator,
		loader:    opts.Loader,
		writer:    opts.Writer,
		builder:   opts.Builder,
		promoter:  opts.Promoter,
	}
}

func (a *Application) Settings() domain.Settings {
	return a.settings
}

func (a *Application) Layout() catalog.Layout {
	return a.layout
}

// DumpMetrics writes the metrics gathered during this run.
func (a *Application) DumpMetrics(w io.Writer) error {
	return telemetry.WriteText(w, a.registry)
}
