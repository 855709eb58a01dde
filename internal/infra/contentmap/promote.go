package contentmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// PromotionResult lists the subtool languages moved to Released, keyed by
// identifier.
type PromotionResult struct {
	Promoted map[string][]domain.Language
}

// Count returns the number of promoted languages.
func (r PromotionResult) Count() int {
	n := 0
	for _, langs := range r.Promoted {
		n += len(langs)
	}
	return n
}

// Promoter moves subtool sources that exist on disk to Released.
type Promoter struct {
	builder *Builder
	loader  *catalog.Loader
	writer  *catalog.Writer
	metrics domain.Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

func NewPromoter(builder *Builder, loader *catalog.Loader, writer *catalog.Writer, metrics domain.Metrics, tracer trace.Tracer, logger *zap.Logger) *Promoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewTracer(nil)
	}
	if loader == nil {
		loader = catalog.NewLoader(nil, metrics, logger)
	}
	if writer == nil {
		writer = catalog.NewWriter(logger)
	}
	return &Promoter{
		builder: builder,
		loader:  loader,
		writer:  writer,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger.Named("promote"),
	}
}

// PromoteAllToReleased promotes every eligible subtool language in the
// repository. Running it twice changes nothing the second time.
func (p *Promoter) PromoteAllToReleased(ctx context.Context) (PromotionResult, error) {
	m, err := p.builder.Tools(ctx, true)
	if err != nil {
		return PromotionResult{}, err
	}
	return p.PromoteEntries(ctx, m)
}

// PromoteEntries promotes the subtool entries of m that were built with
// existence checks. Entries of m are updated in place. Failures for one
// language do not stop the others and are returned joined.
func (p *Promoter) PromoteEntries(ctx context.Context, m *domain.ContentMap) (PromotionResult, error) {
	ctx, span := p.tracer.Start(ctx, telemetry.SpanPromote, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	result := PromotionResult{Promoted: map[string][]domain.Language{}}
	var errs []error
	for _, id := range m.Identifiers() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		entry, _ := m.Get(id)
		if entry.Type != domain.EntrySubtool || entry.Exists == nil {
			continue
		}
		langs := eligible(entry)
		if len(langs) == 0 {
			continue
		}
		promoted, err := p.promote(ctx, id, &entry, langs)
		if len(promoted) > 0 {
			result.Promoted[id] = promoted
			m.Set(id, entry)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	span.SetAttributes(attribute.Int(telemetry.AttrPromoted, result.Count()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// promote rewrites one subtool with every language in langs whose source is
// still present set to Released.
func (p *Promoter) promote(ctx context.Context, id string, entry *domain.Entry, langs []domain.Language) ([]domain.Language, error) {
	path := filepath.Join(p.builder.Layout().Root(), filepath.FromSlash(entry.MetadataPath))
	record, err := p.loader.LoadSubtool(ctx, path, catalog.LoadOptions{})
	if err != nil {
		for _, lang := range langs {
			p.fail(id, lang, err)
		}
		return nil, fmt.Errorf("promote %s: %w", id, err)
	}

	var (
		promoted []domain.Language
		errs     []error
	)
	for _, lang := range langs {
		source := sourceFor(path, lang)
		if _, err := os.Stat(source); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = domain.E(domain.CodeNotFound, "promote", fmt.Sprintf("%s source %s is missing", lang, entry.MetadataPath), err)
			}
			errs = append(errs, fmt.Errorf("promote %s %s: %w", id, lang, err))
			p.fail(id, lang, err)
			continue
		}
		record.LanguageStatuses.Set(lang, domain.StatusReleased)
		promoted = append(promoted, lang)
	}
	if len(promoted) == 0 {
		return nil, errors.Join(errs...)
	}

	if err := p.writer.Write(ctx, path, record); err != nil {
		for _, lang := range promoted {
			p.fail(id, lang, err)
		}
		errs = append(errs, fmt.Errorf("promote %s: %w", id, err))
		return nil, errors.Join(errs...)
	}
	for _, lang := range promoted {
		p.metrics.ObservePromotion(lang, nil)
		p.logger.Info("status promoted",
			telemetry.EventField(telemetry.EventStatusPromoted),
			telemetry.IdentifierField(id),
			telemetry.LanguageField(string(lang)),
			telemetry.PathField(entry.MetadataPath),
		)
	}
	entry.SetLanguageStatuses(record.LanguageStatuses)
	return promoted, errors.Join(errs...)
}

func (p *Promoter) fail(id string, lang domain.Language, err error) {
	p.metrics.ObservePromotion(lang, err)
	p.logger.Warn("status promotion failed",
		telemetry.EventField(telemetry.EventPromotionFailure),
		telemetry.IdentifierField(id),
		telemetry.LanguageField(string(lang)),
		zap.Error(err),
	)
}

// eligible returns the languages of entry that are Draft or Incomplete and
// whose source was found when the map was built.
func eligible(entry domain.Entry) []domain.Language {
	var langs []domain.Language
	for _, lang := range domain.Languages {
		if entry.LanguageStatus(lang).Promotable() && entry.Exists.Get(lang) {
			langs = append(langs, lang)
		}
	}
	return langs
}

// sourceFor maps a subtool metadata path to its source file for lang.
func sourceFor(metadataPath string, lang domain.Language) string {
	return strings.TrimSuffix(metadataPath, domain.MetadataSuffix) + lang.SourceExtension()
}
