package models

import "time"

// Metric result statuses. A batch query never fails as a whole; each entry
// carries one of these.
const (
	StatusOK           = "ok"
	StatusError        = "error"
	StatusNotFound     = "not_found"
	StatusEmpty        = "empty"
	StatusPartialError = "partial_error"
)

// PeriodWindow is a concrete resolved date range.
type PeriodWindow struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SeriesPoint is one sample of a cumulative-return series.
type SeriesPoint struct {
	Date              time.Time `json:"date"`
	CumulativePercent float64   `json:"cumulative_percent"`
}

// Series is an ordered cumulative-return series aligned to anchor dates.
type Series []SeriesPoint

// Final returns the cumulative percent at the last anchor, or 0 for an
// empty series.
func (s Series) Final() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].CumulativePercent
}

// PatrimonyPoint is one sample of the total-patrimony time series.
type PatrimonyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// AssetValuation is the per-asset output of the valuation engine.
type AssetValuation struct {
	AssetID       string     `json:"asset_id"`
	Name          string     `json:"name"`
	Ticker        string     `json:"ticker,omitempty"`
	AssetClass    AssetClass `json:"asset_class"`
	Quantity      float64    `json:"quantity"`
	CurrentPrice  float64    `json:"current_price"`
	PriceSource   string     `json:"price_source"`
	CurrentValue  float64    `json:"current_value"`
	InvestedOpen  float64    `json:"invested_open"`
	UnrealizedPnl float64    `json:"unrealized_pnl"`
}

// PortfolioValuation aggregates asset valuations as of a single date.
type PortfolioValuation struct {
	AsOf              time.Time        `json:"as_of"`
	Assets            []AssetValuation `json:"assets"`
	OpenMarketValue   float64          `json:"open_market_value"`
	InvestedCapital   float64          `json:"invested_capital"`
	RealizedCash      float64          `json:"realized_cash"`
	RealizedResult    float64          `json:"realized_result"`
	RealizedCostBasis float64          `json:"realized_cost_basis"`
	History           []PatrimonyPoint `json:"history,omitempty"`
}

// AssetContribution is one row of the profitability contribution ranking.
type AssetContribution struct {
	AssetID         string     `json:"asset_id"`
	Name            string     `json:"name"`
	AssetClass      AssetClass `json:"asset_class"`
	ReturnPct       float64    `json:"return_pct"`
	Weight          float64    `json:"weight"`
	ContributionPct float64    `json:"contribution_pct"`
}

// BenchmarkComparison carries the four reference series and their final
// values formatted for display.
type BenchmarkComparison struct {
	CDI           Series `json:"cdi"`
	Ibovespa      Series `json:"ibovespa"`
	Selic         Series `json:"selic"`
	IFIX          Series `json:"ifix"`
	CDIFinal      string `json:"cdi_final"`
	IbovespaFinal string `json:"ibovespa_final"`
	SelicFinal    string `json:"selic_final"`
	IFIXFinal     string `json:"ifix_final"`
}

// ProfitabilityWidget is the rendering-agnostic output of the
// profitability engine.
type ProfitabilityWidget struct {
	Period          PeriodWindow        `json:"period"`
	HasData         bool                `json:"has_data"`
	ReturnPct       float64             `json:"return_pct"`
	ReturnFormatted string              `json:"return_formatted"`
	AlphaCDI        float64             `json:"alpha_cdi"`
	AlphaFormatted  string              `json:"alpha_formatted"`
	StartValue      float64             `json:"start_value"`
	EndValue        float64             `json:"end_value"`
	Portfolio       Series              `json:"portfolio_series"`
	Benchmarks      BenchmarkComparison `json:"benchmarks"`
	VariableIncome  []AssetContribution `json:"variable_income"`
	FixedIncome     []AssetContribution `json:"fixed_income"`
}

// AllocationSlice is one bucket of the allocation widget.
type AllocationSlice struct {
	Key     string  `json:"key"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// AllocationWidget breaks the open market value down by a grouping key.
type AllocationWidget struct {
	AsOf    time.Time         `json:"as_of"`
	GroupBy string            `json:"group_by"`
	Total   float64           `json:"total"`
	Slices  []AllocationSlice `json:"slices"`
}

// MetricResult is one entry of a metrics batch response.
type MetricResult struct {
	MetricID string         `json:"metric_id"`
	Status   string         `json:"status"`
	Data     any            `json:"data,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// CardResult groups metric results under a frontend card.
type CardResult struct {
	CardID  string         `json:"card_id"`
	Status  string         `json:"status"`
	Metrics []MetricResult `json:"metrics"`
}
