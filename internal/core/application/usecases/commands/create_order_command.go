package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a new order awaiting courier assignment.
// The delivery fee is not part of the command, it is priced on placement.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), restaurantID,
//	    kernel.MustGeoPoint(33.5138, 36.2765), kernel.MustGeoPoint(33.5200, 36.2900),
//	    decimal.NewFromInt(45), true, false)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	breakdown, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
//	fmt.Printf("Order %s created, delivery fee %s", cmd.OrderID(), breakdown.Fee)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID            kernel.UUID
	restaurantID       kernel.UUID
	restaurantLocation kernel.GeoPoint
	customerLocation   kernel.GeoPoint
	restaurantAmount   decimal.Decimal
	isCOD              bool
	isRush             bool

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates identifiers, both locations and the
// restaurant subtotal, which must be positive once rounded to cents.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	restaurantID kernel.UUID,
	restaurantLocation kernel.GeoPoint,
	customerLocation kernel.GeoPoint,
	restaurantAmount decimal.Decimal,
	isCOD bool,
	isRush bool,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		isCOD:  isCOD,
		isRush: isRush,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setIDs(orderID, restaurantID),
		cmd.setLocations(restaurantLocation, customerLocation),
		cmd.setRestaurantAmount(restaurantAmount),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) RestaurantID() kernel.UUID {
	return c.restaurantID
}

func (c CreateOrderCommand) RestaurantLocation() kernel.GeoPoint {
	return c.restaurantLocation
}

func (c CreateOrderCommand) CustomerLocation() kernel.GeoPoint {
	return c.customerLocation
}

// RestaurantAmount is the subtotal owed to the restaurant.
func (c CreateOrderCommand) RestaurantAmount() decimal.Decimal {
	return c.restaurantAmount
}

func (c CreateOrderCommand) IsCOD() bool {
	return c.isCOD
}

func (c CreateOrderCommand) IsRush() bool {
	return c.isRush
}

func (c *CreateOrderCommand) setIDs(orderID, restaurantID kernel.UUID) error {
	if err := errors.Join(orderID.Validate(), restaurantID.Validate()); err != nil {
		return err
	}

	c.orderID = orderID
	c.restaurantID = restaurantID
	return nil
}

func (c *CreateOrderCommand) setLocations(restaurant, customer kernel.GeoPoint) error {
	if err := errors.Join(restaurant.Validate(), customer.Validate()); err != nil {
		return err
	}

	c.restaurantLocation = restaurant
	c.customerLocation = customer
	return nil
}

// setRestaurantAmount keeps the subtotal in cents, as the order stores it.
func (c *CreateOrderCommand) setRestaurantAmount(amount decimal.Decimal) error {
	rounded := amount.Round(order.MoneyPlaces)
	if !rounded.IsPositive() {
		return errs.NewValueIsOutOfRangeError("restaurantAmount", amount.String(), "0.01", "unbounded")
	}

	c.restaurantAmount = rounded
	return nil
}
