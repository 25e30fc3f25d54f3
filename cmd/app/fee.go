package main

import (
	"fmt"
	"strconv"

	"dispatch/internal/adapters/out/feeconfig"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(feeCmd)
	feeCmd.AddCommand(feeCheckCmd)
	feeCmd.AddCommand(feeQuoteCmd)

	feeCmd.PersistentFlags().StringP("file", "f", "", "Fee configuration file (defaults to FEE_CONFIG_PATH)")
	feeQuoteCmd.Flags().Bool("rush", false, "Price a rush delivery")
}

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Inspect the delivery fee configuration",
}

var feeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the fee configuration file",
	RunE: func(c *cobra.Command, _ []string) error {
		path, err := feeConfigPath(c)
		if err != nil {
			return err
		}

		cfg, err := feeconfig.LoadFile(path)
		if err != nil {
			return err
		}

		out := c.OutOrStdout()
		fmt.Fprintf(out, "%s is valid\n", path)
		fmt.Fprintf(out, "  in town threshold km:    %s\n", cfg.InTownThresholdKm)
		fmt.Fprintf(out, "  base fee in town:        %s\n", cfg.BaseFeeInTown.StringFixed(2))
		fmt.Fprintf(out, "  base fee out of town:    %s\n", cfg.BaseFeeOutOfTown.StringFixed(2))
		fmt.Fprintf(out, "  per km rate:             %s\n", cfg.PerKmRate.StringFixed(2))
		fmt.Fprintf(out, "  rush surcharge:          %s\n", cfg.RushSurcharge.StringFixed(2))
		fmt.Fprintf(out, "  free delivery threshold: %s\n", cfg.FreeDeliveryThreshold.StringFixed(2))
		return nil
	},
}

var feeQuoteCmd = &cobra.Command{
	Use:   "quote RESTAURANT_LAT RESTAURANT_LON CUSTOMER_LAT CUSTOMER_LON ORDER_AMOUNT",
	Short: "Price a delivery with the fee configuration file",
	Args:  cobra.ExactArgs(5),
	RunE: func(c *cobra.Command, args []string) error {
		path, err := feeConfigPath(c)
		if err != nil {
			return err
		}
		cfg, err := feeconfig.LoadFile(path)
		if err != nil {
			return err
		}

		var coords [4]float64
		for i := range coords {
			if coords[i], err = strconv.ParseFloat(args[i], 64); err != nil {
				return fmt.Errorf("coordinate %q: %w", args[i], err)
			}
		}
		restaurant, err := kernel.NewGeoPoint(coords[0], coords[1])
		if err != nil {
			return err
		}
		customer, err := kernel.NewGeoPoint(coords[2], coords[3])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[4])
		if err != nil {
			return fmt.Errorf("order amount %q: %w", args[4], err)
		}
		rush, _ := c.Flags().GetBool("rush")

		query, err := queries.NewCalculateFeeQuery(restaurant, customer, amount, rush)
		if err != nil {
			return err
		}
		quote, err := queries.NewCalculateFeeQueryHandler(feeconfig.NewStatic(cfg)).Handle(c.Context(), query)
		if err != nil {
			return err
		}

		out := c.OutOrStdout()
		fmt.Fprintf(out, "distance km:    %.2f (%s)\n", quote.DistanceKm, quote.CityType)
		fmt.Fprintf(out, "base fee:       %s\n", quote.BaseFee.StringFixed(2))
		fmt.Fprintf(out, "distance fee:   %s\n", quote.DistanceFee.StringFixed(2))
		fmt.Fprintf(out, "rush surcharge: %s\n", quote.RushSurcharge.StringFixed(2))
		fmt.Fprintf(out, "fee:            %s\n", quote.Fee.StringFixed(2))
		if reason, ok := quote.FreeDeliveryReason.Get(); ok {
			fmt.Fprintf(out, "free delivery:  %s\n", reason)
		}
		return nil
	},
}

func feeConfigPath(c *cobra.Command) (string, error) {
	if path, _ := c.Flags().GetString("file"); path != "" {
		return path, nil
	}
	configs, err := getConfigs()
	if err != nil {
		return "", err
	}
	return configs.FeeConfigPath, nil
}
