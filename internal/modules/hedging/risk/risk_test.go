package risk

import (
	"math"
	"testing"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/classifier"
	"github.com/aristath/hedger/internal/modules/hedging/exposure"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyse(t *testing.T, positions ...domain.HoldingPosition) (exposure.Analysis, []classifier.ClassifiedPosition) {
	t.Helper()
	tables := reference.MustDefault()
	classified := classifier.New(tables).ClassifyAll(positions)
	return exposure.New(tables).Aggregate(classified), classified
}

func TestPortfolioBeta(t *testing.T) {
	calc := New(reference.MustDefault())
	an, _ := analyse(t,
		domain.HoldingPosition{Ticker: "NVDA", Value: 500_000},
		domain.HoldingPosition{Ticker: "JPM", Value: 300_000},
		domain.HoldingPosition{Ticker: "CBA.AX", Value: 200_000},
	)

	expected := (500_000*1.7 + 300_000*1.1 + 200_000*0.65*0.85) / 1_000_000
	assert.InDelta(t, expected, calc.PortfolioBeta(an, 1_000_000), 1e-12)
	assert.Equal(t, 0.0, calc.PortfolioBeta(an, 0))
	assert.Equal(t, 0.0, calc.PortfolioBeta(an, -10))
}

func TestCompute_VaR(t *testing.T) {
	calc := New(reference.MustDefault())
	an, classified := analyse(t, domain.HoldingPosition{Ticker: "NVDA", Value: 1_000_000, Weight: 100})

	m := calc.Compute(an, 1_000_000, classified)

	assert.InDelta(t, 1.7, m.PortfolioBeta, 1e-12)
	assert.InDelta(t, 1.7*0.012, m.DailyVolatility, 1e-12)
	assert.InDelta(t, 1_000_000*1.7*0.012*1.645, m.VaR95, 1e-6)
	assert.InDelta(t, 1_000_000*1.7*0.012*2.326, m.VaR99, 1e-6)
	assert.Equal(t, m.VaR95*math.Sqrt(10), m.VaR95TenDay)
	assert.Greater(t, m.VaR99, m.VaR95)
	assert.Greater(t, m.VaR95, 0.0)
}

func TestCompute_VaRMonotonicAcrossPortfolios(t *testing.T) {
	calc := New(reference.MustDefault())
	portfolios := [][]domain.HoldingPosition{
		{{Ticker: "JPM", Value: 100}},
		{{Ticker: "CBA.AX", Value: 5_000}, {Ticker: "KO", Value: 2_000}},
		{{Ticker: "MSTR", Value: 1_000_000}, {Ticker: "BHP.AX", Value: 10}},
	}

	for _, ps := range portfolios {
		an, classified := analyse(t, ps...)
		m := calc.Compute(an, an.LongValue, classified)
		require.Greater(t, m.PortfolioBeta, 0.0)
		assert.Greater(t, m.VaR99, m.VaR95)
		assert.Greater(t, m.VaR95, 0.0)
		assert.Equal(t, m.VaR95*math.Sqrt(10), m.VaR95TenDay)
	}
}

func TestCompute_Degenerate(t *testing.T) {
	calc := New(reference.MustDefault())
	an, classified := analyse(t)

	m := calc.Compute(an, 0, classified)

	assert.Equal(t, 0.0, m.PortfolioBeta)
	assert.Equal(t, 0.0, m.VaR95)
	assert.Equal(t, 0.0, m.VaR99)
	assert.Equal(t, 0.0, m.VaR95TenDay)
	assert.Empty(t, m.Concentration.Top)
	for _, s := range m.Stress {
		assert.Equal(t, 0.0, s.Impact, s.Name)
	}
}

func TestCompute_NonFinitePortfolioValue(t *testing.T) {
	calc := New(reference.MustDefault())
	an, classified := analyse(t, domain.HoldingPosition{Ticker: "NVDA", Value: 1000})

	m := calc.Compute(an, math.NaN(), classified)
	assert.Equal(t, 0.0, m.PortfolioValue)
	assert.Equal(t, 0.0, m.VaR95)
}

func TestStress(t *testing.T) {
	calc := New(reference.MustDefault())
	an, _ := analyse(t,
		domain.HoldingPosition{Ticker: "NVDA", Value: 600_000},
		domain.HoldingPosition{Ticker: "NST.AX", Value: 100_000},
		domain.HoldingPosition{Ticker: "WDS.AX", Value: 50_000},
		domain.HoldingPosition{Ticker: "GLD", Value: 150_000},
		domain.HoldingPosition{Ticker: "CBA.AX", Value: 100_000},
	)
	const value = 1_000_000.0
	beta := calc.PortfolioBeta(an, value)

	results := calc.Stress(an, value, beta)
	byName := make(map[string]StressResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	require.Len(t, byName, 7)

	assert.InDelta(t, value*-0.10*beta, byName["Market sell-off"].Impact, 1e-6)
	assert.InDelta(t, value*-0.20*beta, byName["Market crash"].Impact, 1e-6)
	assert.InDelta(t, value*-0.10*0.25, byName["Gold price drop"].Impact, 1e-6)
	assert.InDelta(t, value*-0.20*0.05, byName["Oil price shock"].Impact, 1e-6)
	assert.InDelta(t, value*-0.15*0.30, byName["Commodity rout"].Impact, 1e-6)
	assert.InDelta(t, value*-0.10*0.25, byName["AUD depreciation"].Impact, 1e-6)
	assert.InDelta(t, -2.5, byName["AUD depreciation"].ImpactPct, 1e-9)
}

func TestStress_EmptyBucketIsPositiveZero(t *testing.T) {
	calc := New(reference.MustDefault())
	an, _ := analyse(t, domain.HoldingPosition{Ticker: "NVDA", Value: 1_000_000})

	tests := []struct {
		scenario string
		beta     float64
	}{
		{"Oil price shock", 1.7},
		{"Gold price drop", 1.7},
		{"AUD depreciation", 1.7},
		{"Market sell-off", 0},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			var r StressResult
			for _, res := range calc.Stress(an, 1_000_000, tt.beta) {
				if res.Name == tt.scenario {
					r = res
				}
			}
			require.Equal(t, tt.scenario, r.Name)
			assert.Negative(t, r.Move)
			assert.False(t, math.Signbit(r.Factor), "factor")
			assert.False(t, math.Signbit(r.Impact), "impact")
			assert.False(t, math.Signbit(r.ImpactPct), "impact pct")
		})
	}
}

func TestStress_KeepsTableOrder(t *testing.T) {
	tables := reference.MustDefault()
	calc := New(tables)
	an, _ := analyse(t, domain.HoldingPosition{Ticker: "NVDA", Value: 1})

	results := calc.Stress(an, 1, 1)
	require.Len(t, results, len(tables.StressScenarios))
	for i, s := range tables.StressScenarios {
		assert.Equal(t, s.Name, results[i].Name)
	}
}

func TestConcentration_StableRanking(t *testing.T) {
	calc := New(reference.MustDefault())
	_, classified := analyse(t,
		domain.HoldingPosition{Ticker: "AAA", Weight: 10},
		domain.HoldingPosition{Ticker: "BBB", Weight: 30},
		domain.HoldingPosition{Ticker: "CASH", Weight: 50},
		domain.HoldingPosition{Ticker: "CCC", Weight: 30},
		domain.HoldingPosition{Ticker: "DDD", Weight: 20},
		domain.HoldingPosition{Ticker: "EEE", Weight: 10},
	)

	conc := calc.Concentration(classified, 4)

	require.Len(t, conc.Top, 4)
	tickers := []string{conc.Top[0].Ticker, conc.Top[1].Ticker, conc.Top[2].Ticker, conc.Top[3].Ticker}
	assert.Equal(t, []string{"BBB", "CCC", "DDD", "AAA"}, tickers, "ties keep input order, cash is skipped")
	assert.Equal(t, 1, conc.Top[0].Rank)
	assert.InDelta(t, 90.0, conc.TopWeight, 1e-12)
	assert.InDelta(t, 0.01+0.09+0.09+0.04+0.01, conc.Herfindahl, 1e-12)
}

func TestConcentration_TopNLargerThanPortfolio(t *testing.T) {
	calc := New(reference.MustDefault())
	_, classified := analyse(t, domain.HoldingPosition{Ticker: "AAA", Weight: 100})

	conc := calc.Concentration(classified, 10)
	assert.Len(t, conc.Top, 1)
	assert.InDelta(t, 1.0, conc.Herfindahl, 1e-12)
}
