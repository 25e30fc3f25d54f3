package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand is a courier heartbeat: where the courier was at
// a given moment and, optionally, whether they are taking orders.
type UpdateCourierLocationCommand struct { //nolint:recvcheck //using for validation
	courierID   kernel.UUID
	location    kernel.GeoPoint
	reportedAt  time.Time
	isAvailable kernel.Optional[bool]

	guard guard.ConstructorGuard
}

func NewUpdateCourierLocationCommand(
	courierID kernel.UUID,
	location kernel.GeoPoint,
	reportedAt time.Time,
	isAvailable kernel.Optional[bool],
) (UpdateCourierLocationCommand, error) {
	cmd := UpdateCourierLocationCommand{
		isAvailable: isAvailable,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCourierID(courierID),
		cmd.setLocation(location),
		cmd.setReportedAt(reportedAt),
	); err != nil {
		return UpdateCourierLocationCommand{}, err
	}

	return cmd, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateCourierLocationCommand) Location() kernel.GeoPoint {
	return c.location
}

func (c UpdateCourierLocationCommand) ReportedAt() time.Time {
	return c.reportedAt
}

func (c UpdateCourierLocationCommand) IsAvailable() kernel.Optional[bool] {
	return c.isAvailable
}

func (c *UpdateCourierLocationCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *UpdateCourierLocationCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *UpdateCourierLocationCommand) setReportedAt(at time.Time) error {
	if at.IsZero() {
		return errs.NewValueIsRequiredError("reportedAt")
	}

	c.reportedAt = at
	return nil
}
