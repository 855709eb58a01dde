//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
	"github.com/truwl/capanno-utils/internal/infra/ids"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
	NewTracer,
)

var RepositorySet = wire.NewSet(
	NewRepoConfig,
	NewLayout,
	NewIndexStore,
	ids.NewAllocator,
	wire.Bind(new(catalog.IdentifierVerifier), new(*ids.Allocator)),
	catalog.NewLoader,
	catalog.NewWriter,
	contentmap.NewBuilder,
	contentmap.NewPromoter,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	RepositorySet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
