// Package courierrepo provides data transfer objects and mapping functions for courier persistence.
// This package implements the repository pattern for the courier domain aggregate, handling
// the conversion between domain entities and database representations.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CourierDTO represents the database structure for persisting courier aggregates.
// Version backs optimistic concurrency: every update bumps it by one.
type CourierDTO struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name              string          `gorm:"type:varchar(255);not null"`
	Location          LocationDTO     `gorm:"embedded;embeddedPrefix:location_"`
	LocationUpdatedAt time.Time       `gorm:"not null"`
	IsAvailable       bool            `gorm:"not null;index"`
	ActiveOrderCount  int             `gorm:"type:int;not null;default:0"`
	AcceptsCOD        bool            `gorm:"column:accepts_cod;not null;default:false"`
	CashBalance       decimal.Decimal `gorm:"type:numeric(12,2);not null;check:cash_balance >= 0"`
	MaxCashLimit      decimal.Decimal `gorm:"type:numeric(12,2);not null;check:max_cash_limit >= cash_balance"`
	Version           int64           `gorm:"not null;default:0"`
}

// TableName specifies the database table name for courier entities.
// Overrides GORM's default naming convention to use "couriers" instead of "courier_dtos".
func (CourierDTO) TableName() string {
	return "couriers"
}

// LocationDTO is the last reported position. Both columns share one index
// so the bounding box prefilter of GetWithinBounds stays cheap.
type LocationDTO struct {
	Lat float64 `gorm:"type:double precision;not null;index:idx_couriers_location,priority:1"`
	Lon float64 `gorm:"type:double precision;not null;index:idx_couriers_location,priority:2"`
}

func fromDomain(c *courier.Courier) CourierDTO {
	return CourierDTO{
		ID:   c.ID().Bytes(),
		Name: c.Name(),
		Location: LocationDTO{
			Lat: c.Location().Lat(),
			Lon: c.Location().Lon(),
		},
		LocationUpdatedAt: c.LocationUpdatedAt().UTC(),
		IsAvailable:       c.IsAvailable(),
		ActiveOrderCount:  c.ActiveOrderCount(),
		AcceptsCOD:        c.AcceptsCOD(),
		CashBalance:       c.CashBalance(),
		MaxCashLimit:      c.MaxCashLimit(),
		Version:           c.Version(),
	}
}

// toDomain re-checks every courier invariant through RestoreCourier.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewGeoPoint(dto.Location.Lat, dto.Location.Lon)
	if err != nil {
		return nil, err
	}

	return courier.RestoreCourier(courier.Snapshot{
		ID:                id,
		Name:              dto.Name,
		Location:          loc,
		LocationUpdatedAt: dto.LocationUpdatedAt.UTC(),
		IsAvailable:       dto.IsAvailable,
		ActiveOrderCount:  dto.ActiveOrderCount,
		AcceptsCOD:        dto.AcceptsCOD,
		CashBalance:       dto.CashBalance,
		MaxCashLimit:      dto.MaxCashLimit,
		Version:           dto.Version,
	})
}

// updates lists every mutable column. A map is used so zero values (an
// unavailable courier, an empty balance) are written too.
func updates(dto CourierDTO, nextVersion int64) map[string]any {
	return map[string]any{
		"name":                dto.Name,
		"location_lat":        dto.Location.Lat,
		"location_lon":        dto.Location.Lon,
		"location_updated_at": dto.LocationUpdatedAt,
		"is_available":        dto.IsAvailable,
		"active_order_count":  dto.ActiveOrderCount,
		"accepts_cod":         dto.AcceptsCOD,
		"cash_balance":        dto.CashBalance,
		"max_cash_limit":      dto.MaxCashLimit,
		"version":             nextVersion,
	}
}
