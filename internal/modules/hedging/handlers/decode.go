package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
)

// flexFloat accepts numbers, numeric strings, booleans and null. Anything it
// cannot read as a finite number decodes to 0 without error.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		s = strings.TrimPrefix(s, "$")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		x = parsed
	case bool:
		if t {
			x = 1
		}
	default:
		return nil
	}

	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	*f = flexFloat(x)
	return nil
}

// flexString accepts strings, numbers and null
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = ""
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		*s = flexString(t)
	case float64:
		*s = flexString(strconv.FormatFloat(t, 'f', -1, 64))
	}
	return nil
}

// flexBool accepts booleans, "true"/"false"/"1"/"0" strings, numbers and null
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	*b = false
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case float64:
		*b = t != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		*b = flexBool(err == nil && parsed)
	}
	return nil
}

// positionPayload is the wire form of a holding position
type positionPayload struct {
	Ticker    flexString `json:"ticker"`
	Symbol    flexString `json:"symbol"`
	Name      flexString `json:"name"`
	Currency  flexString `json:"currency"`
	Value     flexFloat  `json:"value"`
	Price     flexFloat  `json:"price"`
	CostBasis flexFloat  `json:"cost_basis"`
	Quantity  flexFloat  `json:"quantity"`
	Weight    flexFloat  `json:"weight"`
	IsFuture  flexBool   `json:"is_future"`
}

func (p positionPayload) toDomain() domain.HoldingPosition {
	ticker := string(p.Ticker)
	if ticker == "" {
		ticker = string(p.Symbol)
	}
	return domain.HoldingPosition{
		Ticker:    ticker,
		Name:      string(p.Name),
		Currency:  domain.Currency(p.Currency),
		Value:     float64(p.Value),
		Price:     float64(p.Price),
		CostBasis: float64(p.CostBasis),
		Quantity:  float64(p.Quantity),
		Weight:    float64(p.Weight),
		IsFuture:  bool(p.IsFuture),
	}
}

// positionList decodes leniently: entries that are not JSON objects are
// dropped instead of failing the whole request.
type positionList []domain.HoldingPosition

func (l *positionList) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	out := make([]domain.HoldingPosition, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var p positionPayload
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		out = append(out, p.toDomain())
	}
	*l = out
	return nil
}

// hedgeParams are the hedge inputs shared by every endpoint, in percent
type hedgeParams struct {
	HedgePct          *flexFloat           `json:"hedge_pct"`
	CommodityHedgePct map[string]flexFloat `json:"commodity_hedge_pct"`
	Prices            map[string]flexFloat `json:"prices"`
}

// inputs converts percentages to fractions. A missing hedge_pct hedges nothing.
func (p hedgeParams) inputs() hedging.HedgeInputs {
	in := hedging.HedgeInputs{}
	if p.HedgePct != nil {
		in.EquityFraction = futures.ClampFraction(float64(*p.HedgePct) / 100)
	}
	if len(p.CommodityHedgePct) > 0 {
		in.CommodityFractions = make(map[string]float64, len(p.CommodityHedgePct))
		for name, pct := range p.CommodityHedgePct {
			in.CommodityFractions[strings.ToLower(strings.TrimSpace(name))] = futures.ClampFraction(float64(pct) / 100)
		}
	}
	return in
}

func (p hedgeParams) prices() domain.StaticPrices {
	if len(p.Prices) == 0 {
		return nil
	}
	prices := make(domain.StaticPrices, len(p.Prices))
	for sym, v := range p.Prices {
		prices[strings.ToUpper(strings.TrimSpace(sym))] = float64(v)
	}
	return prices
}

// AnalyzeRequest is the body of the analysis endpoints
type AnalyzeRequest struct {
	Positions  positionList `json:"positions"`
	TotalValue flexFloat    `json:"total_value"`
	hedgeParams
}

func (r AnalyzeRequest) snapshot() hedging.Snapshot {
	return hedging.Snapshot{
		Positions:  []domain.HoldingPosition(r.Positions),
		TotalValue: float64(r.TotalValue),
	}
}

// QuotePayload is one pushed quote
type QuotePayload struct {
	Symbol flexString `json:"symbol"`
	Price  flexFloat  `json:"price"`
}

// PutQuotesRequest is the body of PUT /quotes
type PutQuotesRequest struct {
	Source string         `json:"source"`
	Quotes []QuotePayload `json:"quotes"`
}
