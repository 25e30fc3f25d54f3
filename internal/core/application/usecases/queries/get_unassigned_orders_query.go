package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetUnassignedOrdersQueryIsNotConstructed = errors.New(
		"GetUnassignedOrdersQuery must be created via NewGetUnassignedOrdersQuery constructor",
	)
)

// GetUnassignedOrdersQuery retrieves the dispatch backlog: orders waiting for a
// courier, oldest first. A zero limit returns the whole backlog.
//
// Example:
//
//	query, err := NewGetUnassignedOrdersQuery(50)
//	if err != nil {
//	    return err
//	}
//	orders, err := NewGetUnassignedOrdersQueryHandler(db).Handle(ctx, query)
type GetUnassignedOrdersQuery struct {
	limit int
	guard guard.ConstructorGuard
}

func NewGetUnassignedOrdersQuery(limit int) (GetUnassignedOrdersQuery, error) {
	if limit < 0 {
		return GetUnassignedOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, "unbounded")
	}
	return GetUnassignedOrdersQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetUnassignedOrdersQuery) Limit() int {
	return q.limit
}

func (q GetUnassignedOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetUnassignedOrdersQueryIsNotConstructed)
}

// GetUnassignedOrdersQueryResponse carries what a dispatcher needs to pick a
// courier by hand.
type GetUnassignedOrdersQueryResponse struct {
	ID                 kernel.UUID
	RestaurantID       kernel.UUID
	RestaurantLocation kernel.GeoPoint
	CustomerLocation   kernel.GeoPoint
	RestaurantAmount   decimal.Decimal
	DeliveryFee        decimal.Decimal
	IsCOD              bool
	IsRush             bool
	CreatedAt          time.Time
}
