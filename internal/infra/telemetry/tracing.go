package telemetry

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const TracerName = "github.com/truwl/capanno-utils"

// Span names and attribute keys shared by repository operations.
const (
	SpanPrefixMap    = "contentmap."
	SpanPromote      = "contentmap.promote"
	SpanRefreshIndex = "contentmap.refresh_index"
	AttrScope        = "capanno.scope"
	AttrCheckExists  = "capanno.check_exists"
	AttrEntries      = "capanno.entries"
	AttrPromoted     = "capanno.promoted"
	AttrIdentifier   = "capanno.identifier"
)

// NewTracer returns a tracer from provider, or a no-op tracer when provider
// is nil.
func NewTracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = noop.NewTracerProvider()
	}
	return provider.Tracer(TracerName)
}
