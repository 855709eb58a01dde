package app

import (
	"context"
	"slices"

	"github.com/truwl/capanno-utils/internal/infra/contentmap"
)

// RefreshIndex rewrites the content index from the identifiers found in the
// repository. The outcome is recorded for /healthz.
func (a *Application) RefreshIndex(ctx context.Context) (contentmap.RefreshResult, error) {
	result, err := a.builder.RefreshIndex(ctx, a.store)
	a.health.RecordRefresh(result.Identifiers, result.ETag, err)
	return result, err
}

// ListIndex returns the indexed identifiers in sorted order.
func (a *Application) ListIndex(ctx context.Context) ([]string, error) {
	ids, err := a.store.Identifiers(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// ReleaseAll promotes every subtool language whose source exists to
// Released.
func (a *Application) ReleaseAll(ctx context.Context) (contentmap.PromotionResult, error) {
	return a.promoter.PromoteAllToReleased(ctx)
}
