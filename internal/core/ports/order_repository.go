package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Only Unassigned and Assigned orders are ever written.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes guarded by the order's version, failing with
	// errs.ErrVersionIsInvalid when another writer got there first.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order or fails with errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllUnassigned returns up to limit unassigned orders, oldest first.
	GetAllUnassigned(ctx context.Context, limit int) ([]*order.Order, error)
}
