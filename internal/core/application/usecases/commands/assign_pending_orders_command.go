package commands

import (
	"errors"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAssignPendingOrdersCommandIsNotConstructed = errors.New(
	"AssignPendingOrdersCommand must be created via NewAssignPendingOrdersCommand constructor",
)

// AssignPendingOrdersCommand triggers automatic assignment of the oldest
// unassigned orders, at most batchSize per run.
//
// Example:
//
//	cmd, _ := NewAssignPendingOrdersCommand(5, 50)
//	summary, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrNoOrderFound) {
//	    return nil
//	}
type AssignPendingOrdersCommand struct { //nolint:recvcheck //using for validation
	radiusKm  float64
	batchSize int

	guard guard.ConstructorGuard
}

func NewAssignPendingOrdersCommand(radiusKm float64, batchSize int) (AssignPendingOrdersCommand, error) {
	cmd := AssignPendingOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRadiusKm(radiusKm),
		cmd.setBatchSize(batchSize),
	); err != nil {
		return AssignPendingOrdersCommand{}, err
	}

	return cmd, nil
}

func (c AssignPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAssignPendingOrdersCommandIsNotConstructed)
}

func (c AssignPendingOrdersCommand) RadiusKm() float64 {
	return c.radiusKm
}

func (c AssignPendingOrdersCommand) BatchSize() int {
	return c.batchSize
}

func (c *AssignPendingOrdersCommand) setRadiusKm(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return errs.NewValueIsOutOfRangeError("radiusKm", radius, "0 (exclusive)", "finite")
	}

	c.radiusKm = radius
	return nil
}

func (c *AssignPendingOrdersCommand) setBatchSize(size int) error {
	if size <= 0 {
		return errs.NewValueIsOutOfRangeError("batchSize", size, 1, "unbounded")
	}

	c.batchSize = size
	return nil
}
