// Package reference holds the static lookup tables the hedging engine runs on:
// commodity ticker and keyword maps, beta tables, index membership lists,
// futures contract specifications and the stress-scenario table.
//
// Tables are data, not code. The defaults ship embedded as YAML and may be
// replaced wholesale from a file. A prepared Tables value is read-only and
// safe to share between goroutines.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aristath/hedger/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ScenarioKind selects how a stress move is scaled
type ScenarioKind string

const (
	// ScenarioEquity scales the move by portfolio beta
	ScenarioEquity ScenarioKind = "equity"
	// ScenarioCommodity scales the move by a commodity bucket's share of portfolio value
	ScenarioCommodity ScenarioKind = "commodity"
	// ScenarioFX scales the move by a currency bucket's share of portfolio value
	ScenarioFX ScenarioKind = "fx"
)

// Params are the tunable constants of the risk model
type Params struct {
	AUDUSD            float64 `yaml:"audusd" json:"audusd"`
	DailyVolProxy     float64 `yaml:"daily_vol_proxy" json:"daily_vol_proxy"`
	ASXProxyBeta      float64 `yaml:"asx_proxy_beta" json:"asx_proxy_beta"`
	RiskFreeRate      float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	DefaultVolatility float64 `yaml:"default_volatility" json:"default_volatility"`
	ConcentrationTopN int     `yaml:"concentration_top_n" json:"concentration_top_n"`
	OptionExpiryDays  []int   `yaml:"option_expiry_days" json:"option_expiry_days"`
}

// KeywordClause matches a lowercase name containing every All keyword and,
// when Any is non-empty, at least one Any keyword.
type KeywordClause struct {
	All []string `yaml:"all" json:"all"`
	Any []string `yaml:"any,omitempty" json:"any,omitempty"`
}

// KeywordRule maps name keywords to a commodity
type KeywordRule struct {
	Commodity string          `yaml:"commodity" json:"commodity"`
	Clauses   []KeywordClause `yaml:"clauses" json:"clauses"`
}

// BetaTables holds per-benchmark beta lookups
type BetaTables struct {
	NasdaqDefault float64            `yaml:"nasdaq_default" json:"nasdaq_default"`
	SP500Default  float64            `yaml:"sp500_default" json:"sp500_default"`
	Nasdaq        map[string]float64 `yaml:"nasdaq" json:"nasdaq"`
	SP500         map[string]float64 `yaml:"sp500" json:"sp500"`
}

// ContractSpec describes a futures contract
type ContractSpec struct {
	Symbol            string  `yaml:"-" json:"symbol"`
	Name              string  `yaml:"name" json:"name"`
	Multiplier        float64 `yaml:"multiplier" json:"multiplier"`
	FallbackPrice     float64 `yaml:"fallback_price" json:"fallback_price"`
	MarginPerContract float64 `yaml:"margin_per_contract" json:"margin_per_contract"`
}

// FuturesTables lists the tradable hedge instruments
type FuturesTables struct {
	PrimaryEquity      string                  `yaml:"primary_equity" json:"primary_equity"`
	SecondaryEquity    string                  `yaml:"secondary_equity" json:"secondary_equity"`
	VolatilityIndex    string                  `yaml:"volatility_index" json:"volatility_index"`
	Contracts          map[string]ContractSpec `yaml:"contracts" json:"contracts"`
	CommodityContracts map[string]string       `yaml:"commodity_contracts" json:"commodity_contracts"`
}

// Scenario is one row of the stress table. Target names a commodity (empty
// means every commodity bucket) or a currency code.
type Scenario struct {
	Name   string       `yaml:"name" json:"name"`
	Kind   ScenarioKind `yaml:"kind" json:"kind"`
	Target string       `yaml:"target,omitempty" json:"target,omitempty"`
	Move   float64      `yaml:"move" json:"move"`
}

// Tables is the complete reference data set
type Tables struct {
	Parameters          Params              `yaml:"parameters" json:"parameters"`
	CurrencySuffixes    map[string]string   `yaml:"currency_suffixes" json:"currency_suffixes"`
	CommodityTickers    map[string][]string `yaml:"commodity_tickers" json:"commodity_tickers"`
	CommodityKeywords   []KeywordRule       `yaml:"commodity_keywords" json:"commodity_keywords"`
	NasdaqCorrelatedASX []string            `yaml:"nasdaq_correlated_asx" json:"nasdaq_correlated_asx"`
	SP500Constituents   []string            `yaml:"sp500_constituents" json:"sp500_constituents"`
	Betas               BetaTables          `yaml:"betas" json:"betas"`
	Futures             FuturesTables       `yaml:"futures" json:"futures"`
	StressScenarios     []Scenario          `yaml:"stress_scenarios" json:"stress_scenarios"`

	tickerCommodity map[string]string
	nasdaqASX       map[string]bool
	sp500           map[string]bool
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the embedded reference tables. The result is shared; callers
// that need to modify it must Clone it first.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Parse(defaultsYAML)
	})
	return defaultTables, defaultErr
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded reference data is invalid: %v", err))
	}
	return t
}

// LoadFile overlays a YAML file onto the embedded defaults. Keys present in
// the file replace the default entries and map entries merge by key. A
// contract spec that names an existing symbol only overrides the fields it
// sets.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}
	base, err := Default()
	if err != nil {
		return nil, err
	}

	t := base.Clone()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("reference file %s: failed to parse: %w", path, err)
	}
	if err := mergeContracts(data, base.Futures.Contracts, t.Futures.Contracts); err != nil {
		return nil, fmt.Errorf("reference file %s: failed to parse: %w", path, err)
	}
	if err := t.Prepare(); err != nil {
		return nil, fmt.Errorf("reference file %s: %w", path, err)
	}
	return t, nil
}

// mergeContracts re-decodes each futures.contracts entry of the overlay on
// top of the base spec for the same symbol. yaml replaces map values
// wholesale, which would zero every field the overlay leaves out.
func mergeContracts(data []byte, base, into map[string]ContractSpec) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	contracts := mappingValue(mappingValue(&doc, "futures"), "contracts")
	if contracts == nil || contracts.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(contracts.Content); i += 2 {
		sym := contracts.Content[i].Value
		spec, ok := base[sym]
		if !ok {
			continue
		}
		if err := contracts.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("contract %s: %w", sym, err)
		}
		into[sym] = spec
	}
	return nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// Parse decodes, validates and indexes a YAML reference document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if err := t.Prepare(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Prepare validates the tables and builds the lookup indexes. It must be
// called after any field is modified.
func (t *Tables) Prepare() error {
	if err := t.Validate(); err != nil {
		return err
	}

	t.tickerCommodity = make(map[string]string)
	for commodity, tickers := range t.CommodityTickers {
		for _, ticker := range tickers {
			t.tickerCommodity[NormalizeTicker(ticker)] = commodity
		}
	}
	t.nasdaqASX = toSet(t.NasdaqCorrelatedASX)
	t.sp500 = toSet(t.SP500Constituents)

	for sym, spec := range t.Futures.Contracts {
		spec.Symbol = sym
		t.Futures.Contracts[sym] = spec
	}
	for i := range t.CommodityKeywords {
		for j := range t.CommodityKeywords[i].Clauses {
			c := &t.CommodityKeywords[i].Clauses[j]
			c.All = lowerAll(c.All)
			c.Any = lowerAll(c.Any)
		}
	}
	return nil
}

// Validate checks internal consistency
func (t *Tables) Validate() error {
	var errs []error

	for sym, spec := range t.Futures.Contracts {
		if spec.Multiplier <= 0 {
			errs = append(errs, fmt.Errorf("contract %s: multiplier must be positive", sym))
		}
		if spec.FallbackPrice < 0 || spec.MarginPerContract < 0 {
			errs = append(errs, fmt.Errorf("contract %s: fallback price and margin must not be negative", sym))
		}
	}
	for _, sym := range []string{t.Futures.PrimaryEquity, t.Futures.SecondaryEquity} {
		if _, ok := t.Futures.Contracts[sym]; !ok {
			errs = append(errs, fmt.Errorf("equity contract %q has no specification", sym))
		}
	}
	for commodity, sym := range t.Futures.CommodityContracts {
		if _, ok := t.Futures.Contracts[sym]; !ok {
			errs = append(errs, fmt.Errorf("commodity %s maps to unknown contract %q", commodity, sym))
		}
	}
	for _, s := range t.StressScenarios {
		switch s.Kind {
		case ScenarioEquity, ScenarioCommodity, ScenarioFX:
		default:
			errs = append(errs, fmt.Errorf("scenario %q: unknown kind %q", s.Name, s.Kind))
		}
	}
	for _, r := range t.CommodityKeywords {
		if r.Commodity == "" || len(r.Clauses) == 0 {
			errs = append(errs, errors.New("keyword rule needs a commodity and at least one clause"))
		}
	}
	if t.Parameters.AUDUSD < 0 || t.Parameters.DailyVolProxy < 0 {
		errs = append(errs, errors.New("parameters must not be negative"))
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy that can be modified and re-prepared.
func (t *Tables) Clone() *Tables {
	c := *t
	c.Parameters.OptionExpiryDays = append([]int(nil), t.Parameters.OptionExpiryDays...)
	c.CurrencySuffixes = cloneMap(t.CurrencySuffixes)
	c.CommodityTickers = make(map[string][]string, len(t.CommodityTickers))
	for k, v := range t.CommodityTickers {
		c.CommodityTickers[k] = append([]string(nil), v...)
	}
	c.CommodityKeywords = make([]KeywordRule, len(t.CommodityKeywords))
	for i, r := range t.CommodityKeywords {
		clauses := make([]KeywordClause, len(r.Clauses))
		for j, cl := range r.Clauses {
			clauses[j] = KeywordClause{
				All: append([]string(nil), cl.All...),
				Any: append([]string(nil), cl.Any...),
			}
		}
		c.CommodityKeywords[i] = KeywordRule{Commodity: r.Commodity, Clauses: clauses}
	}
	c.NasdaqCorrelatedASX = append([]string(nil), t.NasdaqCorrelatedASX...)
	c.SP500Constituents = append([]string(nil), t.SP500Constituents...)
	c.Betas.Nasdaq = cloneMap(t.Betas.Nasdaq)
	c.Betas.SP500 = cloneMap(t.Betas.SP500)
	c.Futures.Contracts = cloneMap(t.Futures.Contracts)
	c.Futures.CommodityContracts = cloneMap(t.Futures.CommodityContracts)
	c.StressScenarios = append([]Scenario(nil), t.StressScenarios...)
	c.tickerCommodity, c.nasdaqASX, c.sp500 = nil, nil, nil
	return &c
}

// NormalizeTicker uppercases a ticker and strips a trailing .AX suffix.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.TrimSuffix(t, ".AX")
}

// CurrencyForTicker derives a listing currency from the ticker suffix.
// Unsuffixed tickers are USD.
func (t *Tables) CurrencyForTicker(ticker string) domain.Currency {
	upper := strings.ToUpper(strings.TrimSpace(ticker))
	best, ccy := "", domain.CurrencyUSD
	for suffix, c := range t.CurrencySuffixes {
		s := strings.ToUpper(suffix)
		if len(s) > len(best) && strings.HasSuffix(upper, s) {
			best, ccy = s, domain.Currency(c)
		}
	}
	return ccy
}

// CommodityForTicker looks a normalized ticker up in the commodity table
func (t *Tables) CommodityForTicker(normalized string) (string, bool) {
	c, ok := t.tickerCommodity[normalized]
	return c, ok
}

// CommodityForName applies the keyword rules to a display name
func (t *Tables) CommodityForName(name string) (string, bool) {
	lower := strings.ToLower(name)
	if lower == "" {
		return "", false
	}
	for _, rule := range t.CommodityKeywords {
		for _, clause := range rule.Clauses {
			if clause.matches(lower) {
				return rule.Commodity, true
			}
		}
	}
	return "", false
}

func (c KeywordClause) matches(lower string) bool {
	for _, kw := range c.All {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	if len(c.Any) == 0 {
		return len(c.All) > 0
	}
	for _, kw := range c.Any {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsNasdaqCorrelatedASX reports ASX names treated as NASDAQ exposure
func (t *Tables) IsNasdaqCorrelatedASX(normalized string) bool {
	return t.nasdaqASX[normalized]
}

// IsSP500 reports membership of the S&P 500 constituent list
func (t *Tables) IsSP500(normalized string) bool {
	return t.sp500[normalized]
}

// NasdaqBeta returns the tabled beta or the NASDAQ default
func (t *Tables) NasdaqBeta(normalized string) float64 {
	if b, ok := t.Betas.Nasdaq[normalized]; ok {
		return b
	}
	return t.Betas.NasdaqDefault
}

// SP500Beta returns the tabled beta or the S&P 500 default
func (t *Tables) SP500Beta(normalized string) float64 {
	if b, ok := t.Betas.SP500[normalized]; ok {
		return b
	}
	return t.Betas.SP500Default
}

// Contract returns a futures specification by symbol
func (t *Tables) Contract(symbol string) (ContractSpec, bool) {
	spec, ok := t.Futures.Contracts[symbol]
	return spec, ok
}

// CommodityContract returns the futures contract used to hedge a commodity.
// ok is false for commodities without a liquid mapped contract.
func (t *Tables) CommodityContract(commodity string) (ContractSpec, bool) {
	sym, ok := t.Futures.CommodityContracts[commodity]
	if !ok {
		return ContractSpec{}, false
	}
	return t.Contract(sym)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[NormalizeTicker(item)] = true
	}
	return set
}

func lowerAll(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
