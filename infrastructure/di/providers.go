package di

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	commandbus "splaro/application/commands/bus"
	commandhandlers "splaro/application/commands/handlers"
	"splaro/application/ports"
	querybus "splaro/application/queries/bus"
	queryhandlers "splaro/application/queries/handlers"
	"splaro/application/services"
	"splaro/infrastructure/cache"
	"splaro/infrastructure/config"
	snapshotfile "splaro/infrastructure/snapshot"
	"splaro/pkg/observability"
)

const metricsNamespace = "splaro_admin"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideTracerProvider installs the OTLP exporter when tracing is enabled
func ProvideTracerProvider(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	if !cfg.Features.EnableTracing {
		return nil, nil
	}
	return observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "splaro-admin",
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
}

// ProvideTracer creates the query layer tracer. It must be built after the
// provider so spans reach the installed exporter.
func ProvideTracer(_ *observability.TracerProvider) *observability.Tracer {
	return observability.NewTracer("splaro/admin")
}

// SelectorConfig maps cache settings onto the backend selector
func SelectorConfig(cfg *config.Config) cache.SelectorConfig {
	rest := cache.DefaultRESTConfig(cfg.Cache.RESTURL, cfg.Cache.RESTToken)
	if cfg.Cache.RESTTimeoutMillis > 0 {
		rest.Timeout = time.Duration(cfg.Cache.RESTTimeoutMillis) * time.Millisecond
	}
	if cfg.Cache.RESTMaxAttempts > 0 {
		rest.MaxAttempts = uint(cfg.Cache.RESTMaxAttempts)
	}
	if cfg.Cache.BreakerFailures > 0 {
		rest.BreakerFailures = uint32(cfg.Cache.BreakerFailures)
	}
	if cfg.Cache.BreakerTimeoutSeconds > 0 {
		rest.BreakerTimeout = time.Duration(cfg.Cache.BreakerTimeoutSeconds) * time.Second
	}

	return cache.SelectorConfig{
		RESTURL:   cfg.Cache.RESTURL,
		RESTToken: cfg.Cache.RESTToken,
		URL:       cfg.Cache.URL,
		KeyPrefix: cfg.Cache.KeyPrefix,
		REST:      rest,
	}
}

// ProvideSelector creates the lazily-selecting cache backend holder
func ProvideSelector(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *cache.Selector {
	return cache.NewSelector(SelectorConfig(cfg), logger, metrics)
}

// ProvideSnapshotProducer creates the file-backed snapshot producer
func ProvideSnapshotProducer(cfg *config.Config, logger *zap.Logger) *snapshotfile.FileProducer {
	return snapshotfile.NewFileProducer(snapshotfile.ProducerConfig{
		Path:            cfg.Snapshot.File,
		MaxAge:          cfg.SnapshotMaxAge(),
		RefreshInterval: cfg.SnapshotRefreshInterval(),
	}, logger)
}

// ProvideAdminQueryService creates the admin read path
func ProvideAdminQueryService(
	provider services.CacheProvider,
	producer ports.SnapshotProducer,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	tracer *observability.Tracer,
) *services.AdminQueryService {
	qc := services.DefaultQueryConfig()
	qc.ListTTL = cfg.ListTTL()
	qc.MetricsTTL = cfg.MetricsTTL()
	if cfg.Query.RecentOrders > 0 {
		qc.RecentOrders = cfg.Query.RecentOrders
	}
	return services.NewAdminQueryService(provider, producer, qc, logger, metrics, tracer)
}

// ProvideQueryBus creates the query bus with all admin handlers registered
func ProvideQueryBus(
	service *services.AdminQueryService,
	metrics *observability.Collector,
	tracer *observability.Tracer,
) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(
		querybus.NewMetricsMiddleware(metrics),
		querybus.NewTracingMiddleware(tracer),
	)
	if err := queryhandlers.RegisterAdminQueries(b, service); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideCommandBus creates the command bus with all admin handlers registered
func ProvideCommandBus(
	writer ports.OrderStatusWriter,
	service *services.AdminQueryService,
	logger *zap.Logger,
) (*commandbus.CommandBus, error) {
	b := commandbus.NewCommandBus(commandbus.LoggingMiddleware(logger))
	err := commandhandlers.RegisterAdminCommands(b,
		commandhandlers.NewUpdateOrderStatusHandler(writer, service, logger),
		commandhandlers.NewClearCacheHandler(service, logger),
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideConfigWatcher watches the config file and reselects the cache
// backend when its settings change
func ProvideConfigWatcher(cfg *config.Config, selector *cache.Selector, logger *zap.Logger) (*config.Watcher, error) {
	w, err := config.NewWatcher(cfg, config.NewLoader(), logger)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(old, updated *config.Config) {
		if old.Cache == updated.Cache {
			return
		}
		logger.Info("Cache settings changed, reselecting backend")
		selector.Reconfigure(SelectorConfig(updated))
	})
	return w, nil
}
