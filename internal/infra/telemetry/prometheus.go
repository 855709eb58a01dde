package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/truwl/capanno-utils/internal/domain"
)

type PrometheusMetrics struct {
	collisions   *prometheus.CounterVec
	recordsLoads *prometheus.CounterVec
	mapBuilds    *prometheus.HistogramVec
	mapEntries   *prometheus.GaugeVec
	promotions   *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		collisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capanno_identifier_collisions_total",
				Help: "Total number of identifier candidates rejected because they were already indexed",
			},
			[]string{"kind"},
		),
		recordsLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capanno_records_loaded_total",
				Help: "Total number of metadata records loaded",
			},
			[]string{"record", "status"},
		),
		mapBuilds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capanno_map_build_duration_seconds",
				Help:    "Duration of content map builds in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"scope", "status"},
		),
		mapEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "capanno_map_entries",
				Help: "Number of entries in the last content map built per scope",
			},
			[]string{"scope"},
		),
		promotions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capanno_status_promotions_total",
				Help: "Total number of language statuses promoted to Released",
			},
			[]string{"language", "status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveCollision(kind domain.Kind) {
	p.collisions.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusMetrics) ObserveRecordLoaded(kind domain.RecordKind, err error) {
	p.recordsLoads.WithLabelValues(string(kind), string(domain.OutcomeOf(err))).Inc()
}

func (p *PrometheusMetrics) ObserveMapBuild(metric domain.MapBuildMetric) {
	status := metric.Status
	if status == "" {
		status = domain.OutcomeSuccess
	}
	p.mapBuilds.WithLabelValues(metric.Scope, string(status)).Observe(metric.Duration.Seconds())
	if status == domain.OutcomeSuccess {
		p.mapEntries.WithLabelValues(metric.Scope).Set(float64(metric.Entries))
	}
}

func (p *PrometheusMetrics) ObservePromotion(language domain.Language, err error) {
	p.promotions.WithLabelValues(string(language), string(domain.OutcomeOf(err))).Inc()
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
