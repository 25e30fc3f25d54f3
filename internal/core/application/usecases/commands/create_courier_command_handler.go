package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/courier"
)

// CreateCourierCommandHandler creates and persists new couriers with their
// initial position and cash-on-delivery preferences.
//
// Example:
//
//	handler := NewCreateCourierCommandHandler(uowFactory, time.Now)
//	cmd, _ := NewCreateCourierCommand("Express Courier", loc, false, decimal.Zero)
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("courier registration failed: %w", err)
//	}
type CreateCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	now        func() time.Time
}

func NewCreateCourierCommandHandler(uowFactory CourierUoWFactory, now func() time.Time) CreateCourierCommandHandler {
	if now == nil {
		now = time.Now
	}
	return CreateCourierCommandHandler{
		uowFactory: uowFactory,
		now:        now,
	}
}

// Handle creates the courier within a transaction.
// Automatically rolls back on any error to prevent partial data.
func (h *CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	courierEntity, err := courier.NewCourier(cmd.CourierID(), cmd.Name(), cmd.Location(), h.now())
	if err != nil {
		return err
	}
	if err = courierEntity.SetCODPreferences(cmd.AcceptsCOD(), cmd.MaxCashLimit()); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.CourierRepository().Add(ctx, courierEntity); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
