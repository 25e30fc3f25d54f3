package commands

import (
	"context"
)

// UpdateCourierLocationCommandHandler applies courier heartbeats.
//
// Heartbeats can arrive out of order. One older than the last accepted
// heartbeat is dropped and Handle reports false; the courier is left untouched,
// availability included.
type UpdateCourierLocationCommandHandler struct {
	uowFactory CourierUoWFactory
}

func NewUpdateCourierLocationCommandHandler(uowFactory CourierUoWFactory) UpdateCourierLocationCommandHandler {
	return UpdateCourierLocationCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns whether the heartbeat was applied.
func (h UpdateCourierLocationCommandHandler) Handle(ctx context.Context, cmd UpdateCourierLocationCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()

	c, err := courierRepo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return false, err
	}

	applied, err := c.UpdateLocation(cmd.Location(), cmd.ReportedAt())
	if err != nil || !applied {
		return false, err
	}

	if available, ok := cmd.IsAvailable().Get(); ok {
		c.SetAvailability(available)
	}

	if err = courierRepo.Update(ctx, c); err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}
