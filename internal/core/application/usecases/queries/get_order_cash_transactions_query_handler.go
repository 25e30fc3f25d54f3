package queries

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GetOrderCashTransactionsQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderCashTransactionsQueryHandler(db *gorm.DB) GetOrderCashTransactionsQueryHandler {
	return GetOrderCashTransactionsQueryHandler{db: db}
}

// Handle returns the legs of the order in creation order. An order without
// cash legs yields an empty slice, not an error.
func (h GetOrderCashTransactionsQueryHandler) Handle(
	ctx context.Context,
	query GetOrderCashTransactionsQuery,
) ([]GetOrderCashTransactionsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			courier_id,
			type,
			status,
			amount,
			applied_amount,
			notes,
			created_at,
			completed_at,
			cancelled_at
		FROM cash_transactions
		WHERE order_id = ?
		ORDER BY created_at, id
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	legs := make([]GetOrderCashTransactionsQueryResponse, 0)
	for rows.Next() {
		var leg GetOrderCashTransactionsQueryResponse
		var id, courierID uuid.UUID
		var applied decimal.NullDecimal
		var notes sql.NullString
		var createdAt time.Time
		var completedAt, cancelledAt sql.NullTime

		err = rows.Scan(
			&id,
			&courierID,
			&leg.Type,
			&leg.Status,
			&leg.Amount,
			&applied,
			&notes,
			&createdAt,
			&completedAt,
			&cancelledAt,
		)
		if err != nil {
			return nil, err
		}

		if leg.ID, err = kernel.UUIDFromGoogle(id); err != nil {
			return nil, err
		}
		if leg.CourierID, err = kernel.UUIDFromGoogle(courierID); err != nil {
			return nil, err
		}
		leg.CreatedAt = createdAt.UTC()
		leg.AppliedAmount = kernel.None[decimal.Decimal]()
		if applied.Valid {
			leg.AppliedAmount = kernel.Some(applied.Decimal)
		}
		leg.Notes = kernel.None[string]()
		if notes.Valid {
			leg.Notes = kernel.Some(notes.String)
		}
		leg.CompletedAt = optionalTime(completedAt)
		leg.CancelledAt = optionalTime(cancelledAt)
		legs = append(legs, leg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return legs, nil
}

func optionalTime(t sql.NullTime) kernel.Optional[time.Time] {
	if !t.Valid {
		return kernel.None[time.Time]()
	}
	return kernel.Some(t.Time.UTC())
}
