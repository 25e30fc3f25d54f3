package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrCalculateFeeQueryIsNotConstructed = errors.New(
		"CalculateFeeQuery must be created via NewCalculateFeeQuery constructor",
	)
)

// CalculateFeeQuery quotes a delivery fee without placing an order.
//
// Example:
//
//	query, err := NewCalculateFeeQuery(restaurant, customer, decimal.NewFromInt(120), false)
//	if err != nil {
//	    return err
//	}
//	quote, err := handler.Handle(ctx, query)
type CalculateFeeQuery struct {
	restaurant  kernel.GeoPoint
	customer    kernel.GeoPoint
	orderAmount decimal.Decimal
	isRush      bool
	guard       guard.ConstructorGuard
}

func NewCalculateFeeQuery(
	restaurant, customer kernel.GeoPoint,
	orderAmount decimal.Decimal,
	isRush bool,
) (CalculateFeeQuery, error) {
	if err := errors.Join(restaurant.Validate(), customer.Validate()); err != nil {
		return CalculateFeeQuery{}, err
	}
	if orderAmount.IsNegative() {
		return CalculateFeeQuery{}, errs.NewValueIsOutOfRangeError("orderAmount", orderAmount.String(), 0, "unbounded")
	}

	return CalculateFeeQuery{
		restaurant:  restaurant,
		customer:    customer,
		orderAmount: orderAmount,
		isRush:      isRush,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (q CalculateFeeQuery) Restaurant() kernel.GeoPoint  { return q.restaurant }
func (q CalculateFeeQuery) Customer() kernel.GeoPoint    { return q.customer }
func (q CalculateFeeQuery) OrderAmount() decimal.Decimal { return q.orderAmount }
func (q CalculateFeeQuery) IsRush() bool                 { return q.isRush }

func (q CalculateFeeQuery) Validate() error {
	return q.guard.Validate(ErrCalculateFeeQueryIsNotConstructed)
}
