package telemetry

import "github.com/truwl/capanno-utils/internal/domain"

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveCollision(_ domain.Kind) {}

func (n *NoopMetrics) ObserveRecordLoaded(_ domain.RecordKind, _ error) {}

func (n *NoopMetrics) ObserveMapBuild(_ domain.MapBuildMetric) {}

func (n *NoopMetrics) ObservePromotion(_ domain.Language, _ error) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
