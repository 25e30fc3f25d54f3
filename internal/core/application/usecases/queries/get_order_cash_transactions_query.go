package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderCashTransactionsQueryIsNotConstructed = errors.New(
		"GetOrderCashTransactionsQuery must be created via NewGetOrderCashTransactionsQuery constructor",
	)
)

// GetOrderCashTransactionsQuery lists the cash legs recorded for one order,
// cancelled legs included, for settlement audits.
type GetOrderCashTransactionsQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderCashTransactionsQuery(orderID kernel.UUID) (GetOrderCashTransactionsQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderCashTransactionsQuery{}, err
	}
	return GetOrderCashTransactionsQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderCashTransactionsQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetOrderCashTransactionsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderCashTransactionsQueryIsNotConstructed)
}

// GetOrderCashTransactionsQueryResponse is one leg as stored. AppliedAmount is
// the signed change to the courier balance and is only set once completed.
type GetOrderCashTransactionsQueryResponse struct {
	ID            kernel.UUID
	CourierID     kernel.UUID
	Type          string
	Status        string
	Amount        decimal.Decimal
	AppliedAmount kernel.Optional[decimal.Decimal]
	Notes         kernel.Optional[string]
	CreatedAt     time.Time
	CompletedAt   kernel.Optional[time.Time]
	CancelledAt   kernel.Optional[time.Time]
}
