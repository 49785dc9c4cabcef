package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"splaro/application/commands"
	commandbus "splaro/application/commands/bus"
	"splaro/application/queries"
	querybus "splaro/application/queries/bus"
	"splaro/domain/snapshot"
	"splaro/pkg/common"
	apperrors "splaro/pkg/errors"
)

// CacheHeader reports whether a response was served from cache
const CacheHeader = "X-Cache"

// AdminHandler handles the admin console endpoints
type AdminHandler struct {
	queryBus   *querybus.QueryBus
	commandBus *commandbus.CommandBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	queryBus *querybus.QueryBus,
	commandBus *commandbus.CommandBus,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		queryBus:   queryBus,
		commandBus: commandBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ListOrders handles GET /api/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	result, err := querybus.Ask[*queries.ListResult[snapshot.Order]](r.Context(), h.queryBus,
		queries.ListOrdersQuery{ListParams: params})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondList(w, result)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	result, err := querybus.Ask[*queries.ListResult[snapshot.User]](r.Context(), h.queryBus,
		queries.ListUsersQuery{ListParams: params})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondList(w, result)
}

// ListSubscriptions handles GET /api/admin/subscriptions
func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	params, ok := h.listParams(w, r)
	if !ok {
		return
	}
	result, err := querybus.Ask[*queries.ListResult[snapshot.Subscription]](r.Context(), h.queryBus,
		queries.ListSubscriptionsQuery{ListParams: params})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondList(w, result)
}

// GetMetrics handles GET /api/admin/metrics
func (h *AdminHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.AdminMetrics](r.Context(), h.queryBus, queries.GetAdminMetricsQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	setCacheHeader(w, result.CacheHit)
	common.RespondJSONWithMeta(w, http.StatusOK, result, &common.MetaInfo{
		Cache: cacheInfo(result.CacheHit, result.SnapshotAgeSeconds, result.LastSyncTime),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles PATCH /api/admin/orders/{orderID}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("Invalid request body").
			WithCode(apperrors.CodeInvalidCommand).
			WithCause(err))
		return
	}

	cmd := commands.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  req.Status,
	}.Normalize()

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"orderId": cmd.OrderID,
		"status":  cmd.Status,
	})
}

type clearCacheRequest struct {
	Reason string `json:"reason"`
}

// ClearCache handles POST /api/admin/cache/clear. The body is optional.
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var req clearCacheRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("Invalid request body").
				WithCode(apperrors.CodeInvalidCommand).
				WithCause(err))
			return
		}
	}

	if err := h.commandBus.Send(r.Context(), commands.ClearCacheCommand{Reason: req.Reason}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *AdminHandler) listParams(w http.ResponseWriter, r *http.Request) (queries.ListParams, bool) {
	pp, err := common.ExtractPaginationParams(r)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()).WithCode(apperrors.CodeInvalidQuery))
		return queries.ListParams{}, false
	}
	return queries.FromPagination(pp), true
}

func respondList[T any](w http.ResponseWriter, result *queries.ListResult[T]) {
	setCacheHeader(w, result.CacheHit)
	common.RespondJSONWithMeta(w, http.StatusOK, result.Items, &common.MetaInfo{
		Pagination: common.BuildPaginationMeta(result.Page, result.PageSize, result.Total),
		Cache:      cacheInfo(result.CacheHit, result.SnapshotAgeSeconds, result.LastSyncTime),
	})
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set(CacheHeader, "HIT")
		return
	}
	w.Header().Set(CacheHeader, "MISS")
}

func cacheInfo(hit bool, age float64, lastSync time.Time) *common.CacheInfo {
	return &common.CacheInfo{
		Hit:                hit,
		SnapshotAgeSeconds: age,
		LastSyncTime:       lastSync,
	}
}
