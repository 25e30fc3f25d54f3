package queries

import (
	"context"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// CalculateFeeQueryHandler prices a delivery with the configuration currently
// loaded by the provider. A missing or invalid configuration is an error;
// there is no fallback fee.
type CalculateFeeQueryHandler struct {
	configs    ports.FeeConfigProvider
	calculator services.FeeCalculator
}

func NewCalculateFeeQueryHandler(configs ports.FeeConfigProvider) CalculateFeeQueryHandler {
	return CalculateFeeQueryHandler{configs: configs, calculator: services.NewFeeCalculator()}
}

func (h CalculateFeeQueryHandler) Handle(ctx context.Context, query CalculateFeeQuery) (services.FeeBreakdown, error) {
	if err := query.Validate(); err != nil {
		return services.FeeBreakdown{}, err
	}

	config, err := h.configs.FeeConfig(ctx)
	if err != nil {
		return services.FeeBreakdown{}, err
	}

	return h.calculator.Calculate(config, services.FeeRequest{
		Restaurant:  query.Restaurant(),
		Customer:    query.Customer(),
		OrderAmount: query.OrderAmount(),
		IsRush:      query.IsRush(),
	})
}
