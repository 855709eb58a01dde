package ids

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/index"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// Allocator hands out identifiers and records them in the repository index.
type Allocator struct {
	store    index.Store
	maxShift int
	metrics  domain.Metrics
	logger   *zap.Logger
	newUUID  func() uuid.UUID
}

func NewAllocator(store index.Store, cfg domain.RepoConfig, metrics domain.Metrics, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Allocator{
		store:    store,
		maxShift: cfg.WithDefaults().MaxWindowShift,
		metrics:  metrics,
		logger:   logger.Named("ids"),
		newUUID:  uuid.New,
	}
}

// Parent allocates a root identifier for a parent tool, script or workflow.
func (a *Allocator) Parent(ctx context.Context, kind domain.Kind, name, version string) (string, error) {
	id, err := a.store.Reserve(ctx, func(known func(string) bool) (string, error) {
		return Derive(kind, name, version, a.maxShift, a.observe(kind, known))
	})
	if err != nil {
		return "", domain.Wrap("allocate identifier", err)
	}
	a.logger.Debug("identifier reserved",
		telemetry.EventField(telemetry.EventIdentifierReserved),
		telemetry.IdentifierField(id),
		zap.String("name", name),
		zap.String("version", version),
	)
	return id, nil
}

// Subtool allocates a subtool identifier under parentID.
func (a *Allocator) Subtool(ctx context.Context, parentID, subtool string) (string, error) {
	id, err := a.store.Reserve(ctx, func(known func(string) bool) (string, error) {
		return DeriveSubtool(parentID, subtool, a.maxShift, a.observe(domain.KindSubtool, known))
	})
	if err != nil {
		return "", domain.Wrap("allocate subtool identifier", err)
	}
	a.logger.Debug("identifier reserved",
		telemetry.EventField(telemetry.EventIdentifierReserved),
		telemetry.IdentifierField(id),
		zap.String("parent", parentID),
		zap.String("subtool", subtool),
	)
	return id, nil
}

// Claim records an identifier chosen by the caller. It fails when the
// identifier is already indexed.
func (a *Allocator) Claim(ctx context.Context, id string) error {
	if _, err := domain.KindOf(id); err != nil {
		return err
	}
	_, err := a.store.Reserve(ctx, func(known func(string) bool) (string, error) {
		if known(id) {
			return "", &domain.DuplicateIdentifierError{Identifier: id}
		}
		return id, nil
	})
	if err != nil {
		return domain.Wrap("claim identifier", err)
	}
	return nil
}

// Verify fails when id is not in the index.
func (a *Allocator) Verify(ctx context.Context, id string) error {
	ok, err := a.store.Contains(ctx, id)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if !ok {
		return &domain.NotFoundError{Identifier: id}
	}
	return nil
}

// Instance returns a new instance identifier under baseID. Instance
// identifiers are not indexed.
func (a *Allocator) Instance(baseID string) (string, error) {
	kind, err := domain.KindOf(baseID)
	if err != nil {
		return "", err
	}
	if _, ok := kind.InstanceKind(); !ok {
		return "", &domain.MalformedIdentifierError{Identifier: baseID, Kind: domain.KindSubtool}
	}
	suffix := a.newUUID().String()[:domain.DefaultInstanceIDLength]
	return baseID + "." + suffix, nil
}

func (a *Allocator) observe(kind domain.Kind, known func(string) bool) Known {
	return func(candidate string) bool {
		if !known(candidate) {
			return false
		}
		a.metrics.ObserveCollision(kind)
		a.logger.Debug("identifier collision",
			telemetry.EventField(telemetry.EventIdentifierCollision),
			telemetry.IdentifierField(candidate),
		)
		return true
	}
}
