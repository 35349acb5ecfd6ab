// Package risk derives portfolio-level beta, parametric VaR, stress-scenario
// impacts and concentration from an exposure analysis.
package risk

import (
	"math"
	"sort"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/classifier"
	"github.com/aristath/hedger/internal/modules/hedging/exposure"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/formulas"
)

// StressResult is the estimated impact of one named shock
type StressResult struct {
	Name   string                 `json:"name"`
	Kind   reference.ScenarioKind `json:"kind"`
	Target string                 `json:"target,omitempty"`
	Move   float64                `json:"move"`
	// Factor is the effective portfolio move after scaling by beta or bucket share
	Factor    float64 `json:"factor"`
	Impact    float64 `json:"impact"`
	ImpactPct float64 `json:"impact_pct"`
}

// RankedPosition is one entry of the concentration table
type RankedPosition struct {
	Rank   int     `json:"rank"`
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Concentration summarises how top-heavy the portfolio is
type Concentration struct {
	Top        []RankedPosition `json:"top"`
	TopWeight  float64          `json:"top_weight"`
	Herfindahl float64          `json:"herfindahl"`
}

// Metrics are the portfolio-level risk summaries
type Metrics struct {
	PortfolioValue  float64        `json:"portfolio_value"`
	PortfolioBeta   float64        `json:"portfolio_beta"`
	DailyVolatility float64        `json:"daily_volatility"`
	VaR95           float64        `json:"var_95"`
	VaR99           float64        `json:"var_99"`
	VaR95TenDay     float64        `json:"var_95_10d"`
	Stress          []StressResult `json:"stress"`
	Concentration   Concentration  `json:"concentration"`
}

// Calculator computes risk metrics
type Calculator struct {
	tables *reference.Tables
}

// New creates a risk calculator over the given tables
func New(tables *reference.Tables) *Calculator {
	return &Calculator{tables: tables}
}

// PortfolioBeta is (NASDAQ βadj + S&P βadj + ASX notional × proxy beta) ÷ value,
// or 0 when the portfolio value is not positive.
func (c *Calculator) PortfolioBeta(an exposure.Analysis, portfolioValue float64) float64 {
	if !(portfolioValue > 0) {
		return 0
	}
	weighted := an.Nasdaq.BetaAdjusted + an.SP500.BetaAdjusted +
		an.ASXNotional*c.tables.Parameters.ASXProxyBeta
	return formulas.SafeDiv(weighted, portfolioValue)
}

// Compute derives every metric. positions feed the concentration table.
func (c *Calculator) Compute(an exposure.Analysis, portfolioValue float64, positions []classifier.ClassifiedPosition) Metrics {
	value := formulas.Finite(portfolioValue)
	beta := c.PortfolioBeta(an, value)

	// A net-short book still carries volatility; size it by magnitude.
	dailyVol := math.Abs(beta) * c.tables.Parameters.DailyVolProxy

	m := Metrics{
		PortfolioValue:  value,
		PortfolioBeta:   beta,
		DailyVolatility: dailyVol,
	}
	if value > 0 {
		m.VaR95 = formulas.ParametricVaR(value, dailyVol, formulas.Z95)
		m.VaR99 = formulas.ParametricVaR(value, dailyVol, formulas.Z99)
		m.VaR95TenDay = formulas.ScaleVaR(m.VaR95, 10)
	}

	m.Stress = c.Stress(an, value, beta)
	m.Concentration = c.Concentration(positions, c.tables.Parameters.ConcentrationTopN)
	return m
}

// Stress evaluates the fixed scenario table
func (c *Calculator) Stress(an exposure.Analysis, portfolioValue, beta float64) []StressResult {
	results := make([]StressResult, 0, len(c.tables.StressScenarios))
	for _, s := range c.tables.StressScenarios {
		var scale float64
		switch s.Kind {
		case reference.ScenarioEquity:
			scale = beta
		case reference.ScenarioCommodity:
			scale = share(an.CommodityValueHome(s.Target), portfolioValue)
		case reference.ScenarioFX:
			scale = share(an.Currencies[domain.Currency(s.Target)].ValueHome, portfolioValue)
		}

		factor := s.Move * scale
		if factor == 0 {
			// a negative move on an empty bucket gives -0
			factor = 0
		}
		r := StressResult{
			Name:   s.Name,
			Kind:   s.Kind,
			Target: s.Target,
			Move:   s.Move,
			Factor: factor,
		}
		if portfolioValue > 0 {
			r.Impact = portfolioValue * factor
			r.ImpactPct = factor * 100
		}
		results = append(results, r)
	}
	return results
}

func share(bucketValue, portfolioValue float64) float64 {
	if !(portfolioValue > 0) {
		return 0
	}
	return formulas.SafeDiv(bucketValue, portfolioValue)
}

// Concentration ranks non-cash positions by weight descending. Ties keep
// input order.
func (c *Calculator) Concentration(positions []classifier.ClassifiedPosition, topN int) Concentration {
	ranked := make([]classifier.ClassifiedPosition, 0, len(positions))
	for _, p := range positions {
		if p.Classification.Class == domain.AssetClassCash {
			continue
		}
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	weights := make([]float64, len(ranked))
	for i, p := range ranked {
		weights[i] = p.Weight
	}

	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}
	conc := Concentration{
		Top:        make([]RankedPosition, 0, topN),
		Herfindahl: formulas.Herfindahl(weights),
	}
	for i, p := range ranked[:topN] {
		conc.Top = append(conc.Top, RankedPosition{
			Rank:   i + 1,
			Ticker: p.Ticker,
			Name:   p.Name,
			Value:  p.Value,
			Weight: p.Weight,
		})
		conc.TopWeight += p.Weight
	}
	return conc
}
