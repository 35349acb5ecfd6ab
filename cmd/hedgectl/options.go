package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/options"
)

type optionsOptions struct {
	spot      float64
	vix       float64
	contracts int
	value     float64
	format    string
}

func newOptionsCmd(root *rootOptions) *cobra.Command {
	opts := &optionsOptions{}

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Price the protective option strategy table",
		Long: `Price protective puts, a collar and a put spread on the primary equity
index future with Black-Scholes for each configured expiry.

Missing or non-positive --spot and --vix fall back to the reference tables.

Examples:
  hedgectl options --spot 21500 --vix 18 --contracts 4
  hedgectl options --contracts 2 --value 1000000 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.spot, "spot", 0, "Index future price")
	cmd.Flags().Float64Var(&opts.vix, "vix", 0, "Volatility index level in points, e.g. 18")
	cmd.Flags().IntVar(&opts.contracts, "contracts", 1, "Contracts to protect")
	cmd.Flags().Float64Var(&opts.value, "value", 0, "Portfolio value for cost percentages")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format (table|json)")

	return cmd
}

func runOptions(out io.Writer, root *rootOptions, opts *optionsOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	tables, err := root.tables()
	if err != nil {
		return err
	}

	prices := domain.StaticPrices{
		tables.Futures.PrimaryEquity:   opts.spot,
		tables.Futures.VolatilityIndex: opts.vix,
	}

	pricer := options.New(tables)
	table := pricer.Price(pricer.Inputs(prices, opts.contracts, opts.value))

	if opts.format == "json" {
		return writeJSON(out, table)
	}
	return renderOptions(out, table)
}
