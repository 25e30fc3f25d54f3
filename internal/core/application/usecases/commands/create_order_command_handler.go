package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// CreateOrderCommandHandler prices and persists new orders.
//
// The fee comes from the current fee configuration. A missing or invalid
// configuration fails the placement with a ConfigurationError; no order is
// stored with a guessed fee.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(orderUoWFactory, feeConfigProvider, time.Now)
//	breakdown, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrConfigurationError) {
//	    // alert, pricing is misconfigured
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	fees       ports.FeeConfigProvider
	calculator services.FeeCalculator
	now        func() time.Time
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	fees ports.FeeConfigProvider,
	now func() time.Time,
) CreateOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		fees:       fees,
		calculator: services.NewFeeCalculator(),
		now:        now,
	}
}

// Handle stores the order as Unassigned and returns the fee breakdown it was priced with.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (services.FeeBreakdown, error) {
	if err := cmd.Validate(); err != nil {
		return services.FeeBreakdown{}, err
	}

	cfg, err := h.fees.FeeConfig(ctx)
	if err != nil {
		return services.FeeBreakdown{}, err
	}

	breakdown, err := h.calculator.Calculate(cfg, services.FeeRequest{
		Restaurant:  cmd.RestaurantLocation(),
		Customer:    cmd.CustomerLocation(),
		OrderAmount: cmd.RestaurantAmount(),
		IsRush:      cmd.IsRush(),
	})
	if err != nil {
		return services.FeeBreakdown{}, err
	}

	o, err := order.NewOrder(order.Placement{
		ID:                 cmd.OrderID(),
		RestaurantID:       cmd.RestaurantID(),
		RestaurantLocation: cmd.RestaurantLocation(),
		CustomerLocation:   cmd.CustomerLocation(),
		RestaurantAmount:   cmd.RestaurantAmount(),
		DeliveryFee:        breakdown.Fee,
		IsCOD:              cmd.IsCOD(),
		IsRush:             cmd.IsRush(),
		CreatedAt:          h.now(),
	})
	if err != nil {
		return services.FeeBreakdown{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return services.FeeBreakdown{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return services.FeeBreakdown{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return services.FeeBreakdown{}, err
	}

	return breakdown, nil
}
