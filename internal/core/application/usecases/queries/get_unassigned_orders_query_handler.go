package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetUnassignedOrdersQueryHandler reads the dispatch backlog straight from
// the orders table.
type GetUnassignedOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetUnassignedOrdersQueryHandler(db *gorm.DB) GetUnassignedOrdersQueryHandler {
	return GetUnassignedOrdersQueryHandler{db: db}
}

// Handle returns Unassigned orders by creation time, ties broken by id.
func (h GetUnassignedOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUnassignedOrdersQuery,
) ([]GetUnassignedOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			restaurant_id,
			restaurant_lat,
			restaurant_lon,
			customer_lat,
			customer_lon,
			restaurant_amount,
			delivery_fee,
			is_cod,
			is_rush,
			created_at
		FROM orders
		WHERE state = ?
		ORDER BY created_at, id`
	args := []any{order.Unassigned.String()}
	if query.Limit() > 0 {
		sql += " LIMIT ?"
		args = append(args, query.Limit())
	}

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]GetUnassignedOrdersQueryResponse, 0)
	for rows.Next() {
		var resp GetUnassignedOrdersQueryResponse
		var id, restaurantID uuid.UUID
		var restaurantLat, restaurantLon, customerLat, customerLon float64
		var amount, fee decimal.Decimal
		var createdAt time.Time

		err = rows.Scan(
			&id,
			&restaurantID,
			&restaurantLat,
			&restaurantLon,
			&customerLat,
			&customerLon,
			&amount,
			&fee,
			&resp.IsCOD,
			&resp.IsRush,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromGoogle(id); err != nil {
			return nil, err
		}
		if resp.RestaurantID, err = kernel.UUIDFromGoogle(restaurantID); err != nil {
			return nil, err
		}
		if resp.RestaurantLocation, err = kernel.NewGeoPoint(restaurantLat, restaurantLon); err != nil {
			return nil, err
		}
		if resp.CustomerLocation, err = kernel.NewGeoPoint(customerLat, customerLon); err != nil {
			return nil, err
		}
		resp.RestaurantAmount = amount
		resp.DeliveryFee = fee
		resp.CreatedAt = createdAt.UTC()
		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
