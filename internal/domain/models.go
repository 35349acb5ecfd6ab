// Package domain provides core domain models and types.
package domain

// Currency represents a listing currency code
type Currency string

// Currencies the hedging engine distinguishes. Anything else is carried
// through as-is and treated as USD-denominated.
const (
	CurrencyUSD Currency = "USD"
	CurrencyAUD Currency = "AUD"
	CurrencyHKD Currency = "HKD"
	CurrencyCAD Currency = "CAD"
)
