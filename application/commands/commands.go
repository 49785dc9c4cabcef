// Package commands holds the admin write commands. Writes go to the system
// of record; the cache layer only reacts to them.
package commands

import (
	"strings"

	"splaro/application/queries"
	apperrors "splaro/pkg/errors"
)

// UpdateOrderStatusCommand moves an order to a new status
type UpdateOrderStatusCommand struct {
	OrderID string `json:"orderId" validate:"required,max=64"`
	Status  string `json:"status" validate:"required,statuscode,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED REFUNDED"`
}

// Normalize trims the id and upper-cases the status
func (c UpdateOrderStatusCommand) Normalize() UpdateOrderStatusCommand {
	c.OrderID = strings.TrimSpace(c.OrderID)
	c.Status = strings.ToUpper(strings.TrimSpace(c.Status))
	return c
}

// Validate validates the normalized command
func (c UpdateOrderStatusCommand) Validate() error {
	n := c.Normalize()
	return asCommandError(queries.GetValidator().Struct(&n))
}

// ClearCacheCommand drops every well-known admin cache key and reselects
// the cache backend
type ClearCacheCommand struct {
	Reason string `json:"reason" validate:"max=200"`
}

// Validate validates the command
func (c ClearCacheCommand) Validate() error {
	return asCommandError(queries.GetValidator().Struct(&c))
}

func asCommandError(err error) error {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.WithCode(apperrors.CodeInvalidCommand)
	}
	return err
}
