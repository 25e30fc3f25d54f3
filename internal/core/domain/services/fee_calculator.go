package services

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// CityType classifies a delivery by its distance.
type CityType int

const (
	InTown CityType = iota + 1
	OutOfTown
)

func (c CityType) String() string {
	switch c {
	case InTown:
		return "InTown"
	case OutOfTown:
		return "OutOfTown"
	}
	return "Unknown"
}

var errFeeConfigIsNotConstructed = errs.NewBusinessError(errs.CodeConfigurationError,
	"fee configuration was not loaded")

// FeeConfig holds the pricing parameters. It has no defaults: a zero value
// fails Validate, so a missing configuration can never price a delivery at zero.
type FeeConfig struct {
	InTownThresholdKm     decimal.Decimal
	BaseFeeInTown         decimal.Decimal
	BaseFeeOutOfTown      decimal.Decimal
	PerKmRate             decimal.Decimal
	RushSurcharge         decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	guard                 guard.ConstructorGuard
}

// NewFeeConfig marks c as deliberately configured and validates it.
//
// Example:
//
//	cfg, err := services.NewFeeConfig(services.FeeConfig{
//	    InTownThresholdKm:     decimal.NewFromInt(10),
//	    BaseFeeInTown:         decimal.NewFromInt(5),
//	    BaseFeeOutOfTown:      decimal.NewFromInt(8),
//	    PerKmRate:             decimal.RequireFromString("0.75"),
//	    RushSurcharge:         decimal.NewFromInt(3),
//	    FreeDeliveryThreshold: decimal.NewFromInt(200),
//	})
func NewFeeConfig(c FeeConfig) (FeeConfig, error) {
	c.guard = guard.NewConstructorGuard()
	if err := c.Validate(); err != nil {
		return FeeConfig{}, err
	}
	return c, nil
}

// Validate returns a ConfigurationError naming every invalid parameter.
func (c FeeConfig) Validate() error {
	if err := c.guard.Validate(errFeeConfigIsNotConstructed); err != nil {
		return err
	}

	var problems []error
	for name, v := range map[string]decimal.Decimal{
		"in_town_threshold_km": c.InTownThresholdKm,
		"base_fee_in_town":     c.BaseFeeInTown,
		"base_fee_out_of_town": c.BaseFeeOutOfTown,
		"per_km_rate":          c.PerKmRate,
		"rush_surcharge":       c.RushSurcharge,
	} {
		if v.IsNegative() {
			problems = append(problems, fmt.Errorf("%s must not be negative, got %s", name, v))
		}
	}
	if !c.FreeDeliveryThreshold.IsPositive() {
		problems = append(problems, fmt.Errorf("free_delivery_threshold must be positive, got %s", c.FreeDeliveryThreshold))
	}

	if err := errors.Join(problems...); err != nil {
		return errs.NewBusinessErrorWithCause(errs.CodeConfigurationError, "fee configuration is invalid", err)
	}
	return nil
}

// FeeRequest is the input of a fee quote.
type FeeRequest struct {
	Restaurant  kernel.GeoPoint
	Customer    kernel.GeoPoint
	OrderAmount decimal.Decimal
	IsRush      bool
}

// FeeBreakdown exposes every component of a fee so billing can audit it.
// CalculatedFee is the fee before the free delivery override; Fee is what
// the customer pays.
type FeeBreakdown struct {
	DistanceKm         float64
	CityType           CityType
	BaseFee            decimal.Decimal
	DistanceFee        decimal.Decimal
	RushSurcharge      decimal.Decimal
	CalculatedFee      decimal.Decimal
	Fee                decimal.Decimal
	IsFreeDelivery     bool
	FreeDeliveryReason kernel.Optional[string]
}

// FeeCalculator is a domain service that prices a delivery.
//
// Business rules:
//   - A delivery up to InTownThresholdKm is InTown, otherwise OutOfTown
//   - fee = base fee of the city type + (OutOfTown ? (distance - threshold) * PerKmRate : 0) + (rush ? RushSurcharge : 0)
//   - An order amount at or above FreeDeliveryThreshold is delivered for free,
//     the rest of the breakdown is still filled in
//   - Money is rounded to cents, half away from zero
//
// Example usage:
//
//	breakdown, err := services.NewFeeCalculator().Calculate(cfg, services.FeeRequest{
//	    Restaurant:  o.RestaurantLocation(),
//	    Customer:    o.CustomerLocation(),
//	    OrderAmount: subtotal,
//	})
//	if errors.Is(err, errs.ErrConfigurationError) {
//	    // fail loudly, never fall back to a zero fee
//	}
type FeeCalculator struct{}

func NewFeeCalculator() FeeCalculator {
	return FeeCalculator{}
}

func (f FeeCalculator) Calculate(config FeeConfig, req FeeRequest) (FeeBreakdown, error) {
	if err := config.Validate(); err != nil {
		return FeeBreakdown{}, err
	}
	if err := errors.Join(req.Restaurant.Validate(), req.Customer.Validate()); err != nil {
		return FeeBreakdown{}, err
	}
	if req.OrderAmount.IsNegative() {
		return FeeBreakdown{}, errs.NewValueIsOutOfRangeError("orderAmount", req.OrderAmount.String(), 0, "unbounded")
	}

	distanceKm := req.Restaurant.DistanceKm(req.Customer)
	distance := decimal.NewFromFloat(distanceKm)

	b := FeeBreakdown{
		DistanceKm:         distanceKm,
		CityType:           InTown,
		BaseFee:            config.BaseFeeInTown,
		DistanceFee:        decimal.Zero,
		RushSurcharge:      decimal.Zero,
		FreeDeliveryReason: kernel.None[string](),
	}

	if distance.GreaterThan(config.InTownThresholdKm) {
		b.CityType = OutOfTown
		b.BaseFee = config.BaseFeeOutOfTown
		b.DistanceFee = distance.Sub(config.InTownThresholdKm).Mul(config.PerKmRate).Round(2)
	}
	if req.IsRush {
		b.RushSurcharge = config.RushSurcharge
	}

	b.BaseFee = b.BaseFee.Round(2)
	b.RushSurcharge = b.RushSurcharge.Round(2)
	b.CalculatedFee = b.BaseFee.Add(b.DistanceFee).Add(b.RushSurcharge)
	b.Fee = b.CalculatedFee

	if req.OrderAmount.GreaterThanOrEqual(config.FreeDeliveryThreshold) {
		b.Fee = decimal.Zero
		b.IsFreeDelivery = true
		b.FreeDeliveryReason = kernel.Some(fmt.Sprintf("order amount %s reaches free delivery threshold %s",
			req.OrderAmount.StringFixed(2), config.FreeDeliveryThreshold.StringFixed(2)))
	}

	return b, nil
}
