// Package ports defines the contracts between the dispatch core and its
// infrastructure: persistence of the three aggregates, keyed locks,
// notifications, metrics and the fee configuration source.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier aggregate.
	Add(ctx context.Context, courier *courier.Courier) error

	// Update persists changes guarded by the courier's version. A concurrent
	// write in between makes it fail with errs.ErrVersionIsInvalid; on success
	// the aggregate's version is advanced.
	Update(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier or fails with errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetForUpdate retrieves a courier and holds a row lock until the
	// surrounding unit of work ends. Cash balance mutations go through it.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetWithinBounds returns a snapshot of couriers inside box, optionally
	// only the available ones. The box is a prefilter; callers still check
	// the exact great-circle distance.
	//
	// Example:
	//   snapshot, err := repo.GetWithinBounds(ctx, origin.BoundingBox(radiusKm), true)
	//   candidates, err := services.NewGeoMatcher().FindCandidates(snapshot, query)
	GetWithinBounds(ctx context.Context, box kernel.BoundingBox, onlyAvailable bool) ([]*courier.Courier, error)
}
