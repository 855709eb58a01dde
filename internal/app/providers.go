package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/index"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewTracer returns a no-op tracer. Exporters are not configured by the CLI.
func NewTracer() trace.Tracer {
	return telemetry.NewTracer(nil)
}

func NewRepoConfig(settings domain.Settings) domain.RepoConfig {
	return settings.WithDefaults().Repo
}

func NewLayout(cfg domain.RepoConfig) catalog.Layout {
	return catalog.NewLayout(cfg)
}

// NewIndexStore opens the configured index backend. The cleanup closes it.
func NewIndexStore(cfg domain.RepoConfig, logger *zap.Logger) (index.Store, func(), error) {
	store, err := index.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close content index", zap.Error(err))
		}
	}
	return store, cleanup, nil
}
