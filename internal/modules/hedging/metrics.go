package hedging

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for engine runs
type Metrics struct {
	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	Positions      prometheus.Histogram
	FallbackPrices *prometheus.CounterVec
	ContractsSized *prometheus.GaugeVec
	LastVaR95      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedger_analysis_runs_total",
				Help: "Total number of engine runs by operation and result",
			},
			[]string{"operation", "result"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedger_analysis_duration_seconds",
				Help:    "Duration of engine runs in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"operation"},
		),

		Positions: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hedger_snapshot_positions",
				Help:    "Number of positions per analysed snapshot",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
		),

		FallbackPrices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedger_fallback_prices_total",
				Help: "Total number of reference fallback prices used, by symbol",
			},
			[]string{"symbol"},
		),

		ContractsSized: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedger_contracts_sized",
				Help: "Contracts recommended by the most recent run, by symbol",
			},
			[]string{"symbol"},
		),

		LastVaR95: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hedger_last_var95_usd",
				Help: "One-day 95% VaR of the most recent run",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Runs,
			m.RunDuration,
			m.Positions,
			m.FallbackPrices,
			m.ContractsSized,
			m.LastVaR95,
		)
	}
	return m
}
