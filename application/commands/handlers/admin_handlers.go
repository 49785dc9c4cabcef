package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"splaro/application/commands"
	"splaro/application/commands/bus"
	"splaro/application/ports"
)

// OrderCacheInvalidator drops cached order scalars after a write
type OrderCacheInvalidator interface {
	InvalidateOrderCaches(ctx context.Context)
}

// CacheClearer drops every well-known admin cache entry
type CacheClearer interface {
	ClearCaches(ctx context.Context)
}

// UpdateOrderStatusHandler handles order status updates
type UpdateOrderStatusHandler struct {
	writer ports.OrderStatusWriter
	cache  OrderCacheInvalidator
	logger *zap.Logger
}

// NewUpdateOrderStatusHandler creates a new update order status handler
func NewUpdateOrderStatusHandler(
	writer ports.OrderStatusWriter,
	cache OrderCacheInvalidator,
	logger *zap.Logger,
) *UpdateOrderStatusHandler {
	return &UpdateOrderStatusHandler{
		writer: writer,
		cache:  cache,
		logger: logger,
	}
}

// Handle writes the new status, then invalidates the order scalars.
// Nothing is invalidated when the write fails.
func (h *UpdateOrderStatusHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.UpdateOrderStatusCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	c = c.Normalize()

	if err := h.writer.UpdateOrderStatus(ctx, c.OrderID, c.Status); err != nil {
		return err
	}

	h.cache.InvalidateOrderCaches(ctx)

	h.logger.Info("Order status updated",
		zap.String("order_id", c.OrderID),
		zap.String("status", c.Status))
	return nil
}

// ClearCacheHandler handles cache clear requests
type ClearCacheHandler struct {
	cache  CacheClearer
	logger *zap.Logger
}

// NewClearCacheHandler creates a new clear cache handler
func NewClearCacheHandler(cache CacheClearer, logger *zap.Logger) *ClearCacheHandler {
	return &ClearCacheHandler{cache: cache, logger: logger}
}

// Handle clears the caches
func (h *ClearCacheHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(commands.ClearCacheCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	h.cache.ClearCaches(ctx)
	h.logger.Info("Cache clear requested", zap.String("reason", c.Reason))
	return nil
}

// RegisterAdminCommands registers the admin command handlers on b
func RegisterAdminCommands(b *bus.CommandBus, update *UpdateOrderStatusHandler, clear *ClearCacheHandler) error {
	if err := b.Register(commands.UpdateOrderStatusCommand{}, update); err != nil {
		return err
	}
	return b.Register(commands.ClearCacheCommand{}, clear)
}
