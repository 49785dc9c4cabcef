//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"splaro/application/ports"
	"splaro/application/services"
	"splaro/infrastructure/cache"
	"splaro/infrastructure/config"
	snapshotfile "splaro/infrastructure/snapshot"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracerProvider,
	ProvideTracer,
	ProvideSelector,
	wire.Bind(new(services.CacheProvider), new(*cache.Selector)),
	ProvideSnapshotProducer,
	wire.Bind(new(ports.SnapshotProducer), new(*snapshotfile.FileProducer)),
	wire.Bind(new(ports.OrderStatusWriter), new(*snapshotfile.FileProducer)),
	ProvideAdminQueryService,
	ProvideQueryBus,
	ProvideCommandBus,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
