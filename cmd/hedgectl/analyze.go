package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
)

type analyzeOptions struct {
	portfolio      string
	hedgePct       float64
	commodityHedge map[string]string
	prices         map[string]string
	format         string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a holdings file and size hedges",
		Long: `Classify every position, aggregate exposures, compute VaR and stress
results, then size futures hedges and price protective option strategies.

Examples:
  hedgectl analyze --portfolio holdings.yaml
  hedgectl analyze --portfolio holdings.yaml --hedge 50 --commodity-hedge gold=80
  hedgectl analyze --portfolio holdings.yaml --price NQ=21500 --price VIX=18 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.portfolio, "portfolio", "p", "", "Holdings YAML file")
	cmd.Flags().Float64Var(&opts.hedgePct, "hedge", 0, "Equity hedge percentage (0-100)")
	cmd.Flags().StringToStringVar(&opts.commodityHedge, "commodity-hedge", nil, "Per-commodity hedge percentage, e.g. gold=80")
	cmd.Flags().StringToStringVar(&opts.prices, "price", nil, "Live price by symbol, e.g. NQ=21500")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format (table|json)")
	_ = cmd.MarkFlagRequired("portfolio")

	return cmd
}

func runAnalyze(out io.Writer, root *rootOptions, opts *analyzeOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	tables, err := root.tables()
	if err != nil {
		return err
	}
	snap, err := loadPortfolio(opts.portfolio)
	if err != nil {
		return err
	}
	in, err := opts.inputs()
	if err != nil {
		return err
	}
	prices, err := parseAssignments(opts.prices, strings.ToUpper)
	if err != nil {
		return err
	}

	svc := hedging.NewService(hedging.NewEngine(tables), nil, root.log)
	report, err := svc.Analyze(snap, in, domain.StaticPrices(prices))
	if err != nil && !errors.Is(err, hedging.ErrNoPositions) {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.format == "json" {
		return writeJSON(out, report)
	}
	if errors.Is(err, hedging.ErrNoPositions) {
		fmt.Fprintln(out, "No positions in portfolio.")
		return nil
	}
	return renderReport(out, report)
}

func (o *analyzeOptions) inputs() (hedging.HedgeInputs, error) {
	in := hedging.HedgeInputs{EquityFraction: futures.ClampFraction(o.hedgePct / 100)}

	pcts, err := parseAssignments(o.commodityHedge, strings.ToLower)
	if err != nil {
		return in, err
	}
	if pcts != nil {
		in.CommodityFractions = make(map[string]float64, len(pcts))
		for name, pct := range pcts {
			in.CommodityFractions[name] = futures.ClampFraction(pct / 100)
		}
	}
	return in, nil
}

func validateFormat(format string, extra ...string) error {
	allowed := append([]string{"table", "json"}, extra...)
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want %s)", format, strings.Join(allowed, "|"))
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
