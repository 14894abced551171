package models

// LedgerState is the position state derived from replaying an asset's
// transactions up to a target date. It is rebuilt from scratch on every
// query and never persisted.
type LedgerState struct {
	Quantity          float64 `json:"quantity"`
	AvgCost           float64 `json:"avg_cost"`
	RealizedCash      float64 `json:"realized_cash"`
	RealizedResult    float64 `json:"realized_result"`
	RealizedCostBasis float64 `json:"realized_cost_basis"`
	InvestedCapital   float64 `json:"invested_capital"`
}
