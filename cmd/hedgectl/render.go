package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/aristath/hedger/internal/modules/hedging"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
	"github.com/aristath/hedger/internal/modules/hedging/options"
)

// money renders whole dollars with thousands separators, e.g. -$1,234,568
func money(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	s := decimal.NewFromFloat(v).Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "0" {
		sign = ""
	}
	return sign + "$" + group(s)
}

// points renders an index-point amount with two decimals
func points(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percent renders a value already in percent
func percent(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

const notAvailable = "n/a"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func section(out io.Writer, title string) {
	fmt.Fprintf(out, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func renderReport(out io.Writer, r hedging.Report) error {
	section(out, "Risk")
	w := newTable(out)
	fmt.Fprintf(w, "Portfolio value\t%s\n", money(r.PortfolioValue))
	fmt.Fprintf(w, "Portfolio beta\t%.2f\n", r.Risk.PortfolioBeta)
	fmt.Fprintf(w, "Daily volatility\t%s\n", percent(r.Risk.DailyVolatility*100))
	fmt.Fprintf(w, "VaR 95%% (1d)\t%s\n", money(r.Risk.VaR95))
	fmt.Fprintf(w, "VaR 99%% (1d)\t%s\n", money(r.Risk.VaR99))
	fmt.Fprintf(w, "VaR 95%% (10d)\t%s\n", money(r.Risk.VaR95TenDay))
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, "Exposure")
	w = newTable(out)
	an := r.Exposure
	fmt.Fprintf(w, "Long\t%s\n", money(an.LongValue))
	fmt.Fprintf(w, "Short\t%s\n", money(an.ShortValue))
	fmt.Fprintf(w, "Net\t%s\n", money(an.NetExposure))
	fmt.Fprintf(w, "Gross\t%s\n", money(an.GrossExposure))
	fmt.Fprintf(w, "NASDAQ (beta-adjusted)\t%s\t%s\n", money(an.Nasdaq.Notional), money(an.Nasdaq.BetaAdjusted))
	fmt.Fprintf(w, "S&P 500 (beta-adjusted)\t%s\t%s\n", money(an.SP500.Notional), money(an.SP500.BetaAdjusted))
	fmt.Fprintf(w, "ASX\t%s\n", money(an.ASXNotional))
	fmt.Fprintf(w, "Other\t%s\n", money(an.OtherNotional))

	names := make([]string, 0, len(an.Commodities))
	for name := range an.Commodities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "Commodity: %s\t%s\n", name, money(an.Commodities[name].ValueUSD))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, "Stress scenarios")
	w = newTable(out)
	fmt.Fprintln(w, "SCENARIO\tMOVE\tIMPACT\tIMPACT %")
	for _, s := range r.Risk.Stress {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, percent(s.Move*100), money(s.Impact), percent(s.ImpactPct))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, "Concentration")
	w = newTable(out)
	fmt.Fprintln(w, "#\tTICKER\tVALUE\tWEIGHT")
	for _, p := range r.Risk.Concentration.Top {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Rank, p.Ticker, money(p.Value), percent(p.Weight))
	}
	fmt.Fprintf(w, "\tTop weight\t\t%s\n", percent(r.Risk.Concentration.TopWeight))
	fmt.Fprintf(w, "\tHerfindahl\t\t%.4f\n", r.Risk.Concentration.Herfindahl)
	if err := w.Flush(); err != nil {
		return err
	}

	if err := renderFutures(out, r.Futures); err != nil {
		return err
	}
	return renderOptions(out, r.Options)
}

func renderFutures(out io.Writer, rec futures.Recommendation) error {
	section(out, fmt.Sprintf("Futures hedge (%s equity)", percent(rec.EquityFraction*100)))
	w := newTable(out)
	fmt.Fprintln(w, "TARGET\tSYMBOL\tEXPOSURE\tHEDGE %\tPRICE\tCONTRACTS\tMARGIN")
	for _, group := range [][]futures.Hedge{rec.Equity, rec.Commodities} {
		for _, h := range group {
			price := points(h.Price)
			if h.PriceSource == futures.SourceFallback {
				price += " (fallback)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				h.Target, h.Symbol, money(h.ExposureUSD), percent(h.Fraction*100), price, h.Contracts, money(h.Margin))
		}
	}
	for _, nh := range rec.NonHedgeable {
		fmt.Fprintf(w, "%s\t-\t%s\t-\t-\t-\t-\n", nh.Commodity, money(nh.ExposureUSD))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	w = newTable(out)
	fmt.Fprintf(w, "Total margin\t%s\n", money(rec.TotalMargin))
	fmt.Fprintf(w, "Beta\t%.2f -> %.2f\n", rec.PortfolioBeta, rec.HedgedBeta)
	fmt.Fprintf(w, "Full hedge\t%d contracts\n", rec.FullHedgeContracts)
	return w.Flush()
}

func renderOptions(out io.Writer, t options.Table) error {
	section(out, fmt.Sprintf("Options on %s", t.Symbol))
	w := newTable(out)
	fmt.Fprintf(w, "Spot\t%s (%s)\n", points(t.Spot), t.SpotSource)
	fmt.Fprintf(w, "Volatility\t%s (%s)\n", percent(t.Volatility*100), t.VolatilitySource)
	fmt.Fprintf(w, "Contracts\t%d\n", t.ContractsNeeded)
	fmt.Fprintf(w, "Strikes\t-5%% %s  -10%% %s  -15%% %s  +10%% %s\n",
		points(t.Strikes.Put5), points(t.Strikes.Put10), points(t.Strikes.Put15), points(t.Strikes.Call10))
	if err := w.Flush(); err != nil {
		return err
	}

	for _, exp := range t.Expiries {
		fmt.Fprintf(out, "\n%d days\n", exp.Days)
		w = newTable(out)
		fmt.Fprintln(w, "STRATEGY\tNET PREMIUM\tPER CONTRACT\tTOTAL\tCOST %\tDELTA")
		for _, s := range exp.Strategies {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.3f\n",
				s.Name, points(s.NetPremium), money(s.PerContract), money(s.Total), percent(s.CostPct), s.NetDelta)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
