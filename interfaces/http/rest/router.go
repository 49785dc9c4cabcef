package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	commandbus "splaro/application/commands/bus"
	querybus "splaro/application/queries/bus"
	"splaro/interfaces/http/rest/handlers"
	"splaro/interfaces/http/rest/middleware"
	"splaro/pkg/common"
	apperrors "splaro/pkg/errors"
	"splaro/pkg/observability"
)

// ReadinessCheck reports whether the service can serve admin queries
type ReadinessCheck func(ctx context.Context) error

// RouterConfig toggles optional router features
type RouterConfig struct {
	EnableCORS     bool
	EnableMetrics  bool
	AllowedOrigins []string
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *commandbus.CommandBus
	queryBus   *querybus.QueryBus
	config     RouterConfig
	metrics    *observability.Collector
	ready      ReadinessCheck
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	config RouterConfig,
	metrics *observability.Collector,
	ready ReadinessCheck,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		config:     config,
		metrics:    metrics,
		ready:      ready,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(rt.logger, rt.config.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		origins := rt.config.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", handlers.CacheHeader},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	admin := handlers.NewAdminHandler(rt.queryBus, rt.commandBus, errorHandler, rt.logger)

	router.Route("/api/admin", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", admin.ListOrders)
			r.Patch("/{orderID}/status", admin.UpdateOrderStatus)
		})
		r.Get("/users", admin.ListUsers)
		r.Get("/subscriptions", admin.ListSubscriptions)
		r.Get("/metrics", admin.GetMetrics)
		r.Post("/cache/clear", admin.ClearCache)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once a snapshot can be served
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondError(w, http.StatusServiceUnavailable, "NOT_READY", "Snapshot unavailable")
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
