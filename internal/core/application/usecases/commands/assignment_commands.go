package commands

import (
	"errors"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrAssignNearestCommandIsNotConstructed = errors.New(
		"AssignNearestCommand must be created via NewAssignNearestCommand constructor",
	)
	ErrManualAssignCommandIsNotConstructed = errors.New(
		"ManualAssignCommand must be created via NewManualAssignCommand constructor",
	)
	ErrReleaseOrderCommandIsNotConstructed = errors.New(
		"ReleaseOrderCommand must be created via NewReleaseOrderCommand constructor",
	)
)

// AssignNearestCommand asks for the best courier within maxRadiusKm of the
// order's restaurant.
type AssignNearestCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	maxRadiusKm float64

	guard guard.ConstructorGuard
}

func NewAssignNearestCommand(orderID kernel.UUID, maxRadiusKm float64) (AssignNearestCommand, error) {
	cmd := AssignNearestCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setMaxRadiusKm(maxRadiusKm),
	); err != nil {
		return AssignNearestCommand{}, err
	}

	return cmd, nil
}

func (c AssignNearestCommand) Validate() error {
	return c.guard.Validate(ErrAssignNearestCommandIsNotConstructed)
}

func (c AssignNearestCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AssignNearestCommand) MaxRadiusKm() float64 {
	return c.maxRadiusKm
}

func (c *AssignNearestCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *AssignNearestCommand) setMaxRadiusKm(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return errs.NewValueIsOutOfRangeError("maxRadiusKm", radius, "0 (exclusive)", "finite")
	}

	c.maxRadiusKm = radius
	return nil
}

// ManualAssignCommand binds a chosen courier to an order, skipping ranking.
type ManualAssignCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

func NewManualAssignCommand(orderID, courierID kernel.UUID) (ManualAssignCommand, error) {
	if err := errors.Join(orderID.Validate(), courierID.Validate()); err != nil {
		return ManualAssignCommand{}, err
	}

	return ManualAssignCommand{
		orderID:   orderID,
		courierID: courierID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ManualAssignCommand) Validate() error {
	return c.guard.Validate(ErrManualAssignCommandIsNotConstructed)
}

func (c ManualAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ManualAssignCommand) CourierID() kernel.UUID {
	return c.courierID
}

// ReleaseOrderCommand unbinds the courier of an order, e.g. when the order is
// cancelled or has to be reassigned. Reason ends up on cancelled cash legs.
type ReleaseOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	reason  string

	guard guard.ConstructorGuard
}

func NewReleaseOrderCommand(orderID kernel.UUID, reason string) (ReleaseOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ReleaseOrderCommand{}, err
	}
	if reason == "" {
		reason = "order released"
	}

	return ReleaseOrderCommand{
		orderID: orderID,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ReleaseOrderCommand) Validate() error {
	return c.guard.Validate(ErrReleaseOrderCommandIsNotConstructed)
}

func (c ReleaseOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ReleaseOrderCommand) Reason() string {
	return c.reason
}
