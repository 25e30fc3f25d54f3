// Package feeconfig loads the delivery fee parameters from a TOML file and
// serves them through ports.FeeConfigProvider.
//
// The file has a single [fees] table. Every key is required and money values
// are quoted strings so they are never rounded through float64:
//
//	[fees]
//	in_town_threshold_km    = "10"
//	base_fee_in_town        = "5.00"
//	base_fee_out_of_town    = "8.00"
//	per_km_rate             = "0.75"
//	rush_surcharge          = "3.00"
//	free_delivery_threshold = "200.00"
package feeconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

var ErrNotLoaded = errs.NewBusinessError(errs.CodeConfigurationError, "fee configuration was not loaded")

type file struct {
	Fees fees `toml:"fees"`
}

type fees struct {
	InTownThresholdKm     decimal.Decimal `toml:"in_town_threshold_km"`
	BaseFeeInTown         decimal.Decimal `toml:"base_fee_in_town"`
	BaseFeeOutOfTown      decimal.Decimal `toml:"base_fee_out_of_town"`
	PerKmRate             decimal.Decimal `toml:"per_km_rate"`
	RushSurcharge         decimal.Decimal `toml:"rush_surcharge"`
	FreeDeliveryThreshold decimal.Decimal `toml:"free_delivery_threshold"`
}

var requiredKeys = []string{
	"in_town_threshold_km",
	"base_fee_in_town",
	"base_fee_out_of_town",
	"per_km_rate",
	"rush_surcharge",
	"free_delivery_threshold",
}

// Parse decodes and validates a fee configuration. Missing and unknown keys
// are configuration errors; nothing falls back to a default.
func Parse(r io.Reader) (services.FeeConfig, error) {
	var f file
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return services.FeeConfig{}, errs.NewBusinessErrorWithCause(errs.CodeConfigurationError,
			"fee configuration is not valid TOML", err)
	}

	var problems []error
	for _, key := range requiredKeys {
		if !md.IsDefined("fees", key) {
			problems = append(problems, fmt.Errorf("fees.%s is missing", key))
		}
	}
	for _, key := range md.Undecoded() {
		problems = append(problems, fmt.Errorf("%s is not a known setting", key.String()))
	}
	if err := errors.Join(problems...); err != nil {
		return services.FeeConfig{}, errs.NewBusinessErrorWithCause(errs.CodeConfigurationError,
			"fee configuration is incomplete", err)
	}

	return services.NewFeeConfig(services.FeeConfig{
		InTownThresholdKm:     f.Fees.InTownThresholdKm,
		BaseFeeInTown:         f.Fees.BaseFeeInTown,
		BaseFeeOutOfTown:      f.Fees.BaseFeeOutOfTown,
		PerKmRate:             f.Fees.PerKmRate,
		RushSurcharge:         f.Fees.RushSurcharge,
		FreeDeliveryThreshold: f.Fees.FreeDeliveryThreshold,
	})
}

func ParseString(s string) (services.FeeConfig, error) {
	return Parse(strings.NewReader(s))
}

// LoadFile parses the configuration at path.
func LoadFile(path string) (services.FeeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.FeeConfig{}, errs.NewBusinessErrorWithCause(errs.CodeConfigurationError,
			"fee configuration is not readable", err)
	}
	defer f.Close()

	return Parse(f)
}
