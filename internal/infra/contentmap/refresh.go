package contentmap

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/hashutil"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// IndexWriter reads and replaces the persisted identifier set.
type IndexWriter interface {
	Identifiers(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, ids []string) error
}

// RefreshResult describes a rebuilt content index.
type RefreshResult struct {
	Identifiers int    `json:"identifiers"`
	ETag        string `json:"etag"`
	// Stale lists the areas that could not be read. Their previously
	// indexed identifiers were kept.
	Stale []string `json:"stale,omitempty"`
}

type indexArea struct {
	scope  string
	prefix string
	build  func(context.Context) (*domain.ContentMap, error)
}

// RefreshIndex rebuilds the content index from every identifier found in the
// repository. ETag digests the content map the index was built from.
// A tools failure fails the refresh. Scripts and workflows that cannot be
// read keep their indexed identifiers and are reported as stale.
func (b *Builder) RefreshIndex(ctx context.Context, store IndexWriter) (RefreshResult, error) {
	ctx, span := b.tracer.Start(ctx, telemetry.SpanRefreshIndex, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	fail := func(err error) (RefreshResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RefreshResult{}, err
	}

	areas := []indexArea{
		{scope: ScopeTools, prefix: domain.ToolPrefix, build: func(ctx context.Context) (*domain.ContentMap, error) {
			return b.Tools(ctx, false)
		}},
		{scope: ScopeScripts, prefix: domain.ScriptPrefix, build: func(ctx context.Context) (*domain.ContentMap, error) {
			return b.Scripts(ctx, false)
		}},
		{scope: ScopeWorkflows, prefix: domain.WorkflowPrefix, build: b.Workflows},
	}

	m := domain.NewContentMap()
	var result RefreshResult
	var stalePrefixes []string
	for _, area := range areas {
		part, err := area.build(ctx)
		if err == nil {
			err = m.Merge(part)
		}
		if err == nil {
			continue
		}
		if area.scope == ScopeTools || ctx.Err() != nil {
			return fail(err)
		}
		b.logger.Warn("keeping indexed identifiers of unreadable area",
			zap.String("area", area.scope),
			zap.Error(err),
		)
		result.Stale = append(result.Stale, area.scope)
		stalePrefixes = append(stalePrefixes, area.prefix+"_")
	}

	ids := m.Identifiers()
	if len(stalePrefixes) > 0 {
		previous, err := store.Identifiers(ctx)
		if err != nil {
			return fail(fmt.Errorf("refresh index: %w", err))
		}
		for _, id := range previous {
			if slices.ContainsFunc(stalePrefixes, func(prefix string) bool { return strings.HasPrefix(id, prefix) }) {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)
	}
	if err := store.Replace(ctx, ids); err != nil {
		return fail(fmt.Errorf("refresh index: %w", err))
	}
	result.Identifiers = len(ids)
	result.ETag = hashutil.ContentMapETag(b.logger, m)
	span.SetAttributes(attribute.Int(telemetry.AttrEntries, len(ids)))
	span.SetStatus(codes.Ok, "")
	b.logger.Info("content index refreshed",
		telemetry.EventField(telemetry.EventIndexRefreshed),
		zap.Int("identifiers", result.Identifiers),
		zap.String("etag", result.ETag),
		zap.Strings("stale", result.Stale),
	)
	return result, nil
}
