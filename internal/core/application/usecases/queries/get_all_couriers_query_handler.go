package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetAllCouriersQueryHandler retrieves all courier information from the database.
// Uses direct SQL queries for read performance.
//
// Example:
//
//	handler := NewGetAllCouriersQueryHandler(db)
//	couriers, err := handler.Handle(ctx, NewGetAllCouriersQuery())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Found %d couriers\n", len(couriers))
type GetAllCouriersQueryHandler struct {
	db *gorm.DB
}

func NewGetAllCouriersQueryHandler(db *gorm.DB) GetAllCouriersQueryHandler {
	return GetAllCouriersQueryHandler{db: db}
}

// Handle returns every courier sorted by name, ties broken by id.
func (h GetAllCouriersQueryHandler) Handle(
	ctx context.Context,
	query GetAllCouriersQuery,
) ([]GetAllCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	couriers := make([]GetAllCouriersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			location_lat,
			location_lon,
			location_updated_at,
			is_available,
			active_order_count,
			accepts_cod,
			cash_balance,
			max_cash_limit
		FROM couriers
		ORDER BY name, id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var courier GetAllCouriersQueryResponse
		var lat, lon float64
		var updatedAt time.Time
		var balance, limit decimal.Decimal
		var id uuid.UUID

		err = rows.Scan(
			&id,
			&courier.Name,
			&lat,
			&lon,
			&updatedAt,
			&courier.IsAvailable,
			&courier.ActiveOrderCount,
			&courier.AcceptsCOD,
			&balance,
			&limit,
		)
		if err != nil {
			return nil, err
		}

		courierID, idErr := kernel.UUIDFromGoogle(id)
		if idErr != nil {
			return nil, idErr
		}
		courier.ID = courierID

		location, locErr := kernel.NewGeoPoint(lat, lon)
		if locErr != nil {
			return nil, locErr
		}
		courier.Location = location
		courier.LocationUpdatedAt = updatedAt.UTC()
		courier.CashBalance = balance
		courier.MaxCashLimit = limit
		couriers = append(couriers, courier)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return couriers, nil
}
