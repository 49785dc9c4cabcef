package di

import (
	"context"
	"errors"

	"go.uber.org/zap"

	commandbus "splaro/application/commands/bus"
	querybus "splaro/application/queries/bus"
	"splaro/application/services"
	"splaro/infrastructure/cache"
	"splaro/infrastructure/config"
	snapshotfile "splaro/infrastructure/snapshot"
	"splaro/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Metrics        *observability.Collector
	TracerProvider *observability.TracerProvider
	Tracer         *observability.Tracer
	Selector       *cache.Selector
	Producer       *snapshotfile.FileProducer
	QueryService   *services.AdminQueryService
	QueryBus       *querybus.QueryBus
	CommandBus     *commandbus.CommandBus
	ConfigWatcher  *config.Watcher
}

// Ready reports whether a snapshot can be served
func (c *Container) Ready(ctx context.Context) error {
	_, err := c.Producer.GetSnapshot(ctx)
	return err
}

// Shutdown stops background work and releases the cache backend
func (c *Container) Shutdown(ctx context.Context) error {
	c.ConfigWatcher.Stop()

	return errors.Join(
		c.Selector.Close(),
		c.TracerProvider.Shutdown(ctx),
	)
}
