package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrCreateCourierCommandIsNotConstructed = errors.New(
		"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
	)
	ErrNameIsRequired = errors.New("name is required")
)

// CreateCourierCommand represents a request to onboard a new courier.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand("John Doe", kernel.MustGeoPoint(33.51, 36.27), true, decimal.NewFromInt(100))
//	if err != nil {
//	    return fmt.Errorf("invalid courier data: %w", err)
//	}
//
//	handler := NewCreateCourierCommandHandler(uowFactory, time.Now)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create courier: %w", err)
//	}
//	fmt.Printf("Created courier with ID: %s", cmd.CourierID())
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID    kernel.UUID
	name         string
	location     kernel.GeoPoint
	acceptsCOD   bool
	maxCashLimit decimal.Decimal

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand creates a command to register a new courier.
// Automatically generates a unique ID for the courier.
func NewCreateCourierCommand(
	name string,
	location kernel.GeoPoint,
	acceptsCOD bool,
	maxCashLimit decimal.Decimal,
) (CreateCourierCommand, error) {
	command := CreateCourierCommand{
		courierID:  kernel.NewUUID(),
		acceptsCOD: acceptsCOD,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setName(name),
		command.setLocation(location),
		command.setMaxCashLimit(maxCashLimit),
	); err != nil {
		return CreateCourierCommand{}, err
	}

	return command, nil
}

func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c CreateCourierCommand) Name() string {
	return c.name
}

func (c CreateCourierCommand) Location() kernel.GeoPoint {
	return c.location
}

func (c CreateCourierCommand) AcceptsCOD() bool {
	return c.acceptsCOD
}

func (c CreateCourierCommand) MaxCashLimit() decimal.Decimal {
	return c.maxCashLimit
}

func (c *CreateCourierCommand) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *CreateCourierCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *CreateCourierCommand) setMaxCashLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return errs.NewValueIsOutOfRangeError("maxCashLimit", limit.String(), 0, "unbounded")
	}

	c.maxCashLimit = limit
	return nil
}
