// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// State holds only Unassigned or Assigned; the (state, created_at) index
// serves the oldest-first scan of the auto-assignment batch.
type OrderDTO struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RestaurantID       uuid.UUID       `gorm:"type:uuid;not null"`
	RestaurantLocation LocationDTO     `gorm:"embedded;embeddedPrefix:restaurant_"`
	CustomerLocation   LocationDTO     `gorm:"embedded;embeddedPrefix:customer_"`
	RestaurantAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsCOD              bool            `gorm:"column:is_cod;not null"`
	IsRush             bool            `gorm:"not null"`
	State              string          `gorm:"type:varchar(32);not null;index:idx_orders_state_created,priority:1"`
	CourierID          *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt          time.Time       `gorm:"not null;index:idx_orders_state_created,priority:2"`
	Version            int64           `gorm:"not null;default:0"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

type LocationDTO struct {
	Lat float64 `gorm:"type:double precision;not null"`
	Lon float64 `gorm:"type:double precision;not null"`
}

func fromDomain(o *order.Order) (OrderDTO, error) {
	if !o.State().IsPersistable() {
		return OrderDTO{}, errs.NewValueIsInvalidErrorWithCause("state",
			fmt.Errorf("%s orders are never stored", o.State()))
	}

	var courierID *uuid.UUID
	if id, ok := o.CourierID().Get(); ok {
		raw := id.Bytes()
		courierID = &raw
	}

	return OrderDTO{
		ID:                 o.ID().Bytes(),
		RestaurantID:       o.RestaurantID().Bytes(),
		RestaurantLocation: LocationDTO{Lat: o.RestaurantLocation().Lat(), Lon: o.RestaurantLocation().Lon()},
		CustomerLocation:   LocationDTO{Lat: o.CustomerLocation().Lat(), Lon: o.CustomerLocation().Lon()},
		RestaurantAmount:   o.RestaurantAmount(),
		DeliveryFee:        o.DeliveryFee(),
		IsCOD:              o.IsCOD(),
		IsRush:             o.IsRush(),
		State:              o.State().String(),
		CourierID:          courierID,
		CreatedAt:          o.CreatedAt().UTC(),
		Version:            o.Version(),
	}, nil
}

// toDomain reconstructs the aggregate with RestoreOrder, which re-checks the
// courier/state invariant.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	restaurantID, err := kernel.UUIDFromBytes(dto.RestaurantID[:])
	if err != nil {
		return nil, err
	}

	courierID := kernel.None[kernel.UUID]()
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}
		courierID = kernel.Some(cID)
	}

	restaurant, err := kernel.NewGeoPoint(dto.RestaurantLocation.Lat, dto.RestaurantLocation.Lon)
	if err != nil {
		return nil, err
	}
	customer, err := kernel.NewGeoPoint(dto.CustomerLocation.Lat, dto.CustomerLocation.Lon)
	if err != nil {
		return nil, err
	}

	state, err := order.ParseAssignmentState(dto.State)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		Placement: order.Placement{
			ID:                 id,
			RestaurantID:       restaurantID,
			RestaurantLocation: restaurant,
			CustomerLocation:   customer,
			RestaurantAmount:   dto.RestaurantAmount,
			DeliveryFee:        dto.DeliveryFee,
			IsCOD:              dto.IsCOD,
			IsRush:             dto.IsRush,
			CreatedAt:          dto.CreatedAt.UTC(),
		},
		State:     state,
		CourierID: courierID,
		Version:   dto.Version,
	})
}
