package models

import "time"

// OperationType identifies what a ledger transaction does to a position.
// Every replay branch must handle all of these; a new operation added here
// must be wired into the ledger processor as well.
type OperationType string

const (
	OperationCreate        OperationType = "create"
	OperationBuy           OperationType = "buy"
	OperationSell          OperationType = "sell"
	OperationIncome        OperationType = "income"
	OperationBalanceUpdate OperationType = "balance_update"
)

// ValidOperation reports whether op is one of the known operation types.
func ValidOperation(op OperationType) bool {
	switch op {
	case OperationCreate, OperationBuy, OperationSell, OperationIncome, OperationBalanceUpdate:
		return true
	}
	return false
}

// AssetClass groups assets for allocation and profitability breakdowns.
type AssetClass string

const (
	ClassEquity      AssetClass = "equity"
	ClassFixedIncome AssetClass = "fixed_income"
	ClassFunds       AssetClass = "funds"
	ClassCrypto      AssetClass = "crypto"
	ClassCash        AssetClass = "cash"
)

// ValidAssetClass reports whether c is one of the known asset classes.
func ValidAssetClass(c AssetClass) bool {
	switch c {
	case ClassEquity, ClassFixedIncome, ClassFunds, ClassCrypto, ClassCash:
		return true
	}
	return false
}

// IsVariableIncome reports whether the class belongs to the RV (renda
// variável) group. Everything else is RF (renda fixa).
func (c AssetClass) IsVariableIncome() bool {
	return c == ClassEquity || c == ClassFunds || c == ClassCrypto
}

// Transaction is a single immutable ledger event for an asset. Transactions
// are append-only: they are never mutated, and only removed through a full
// asset deletion cascade. Replay order is (ReferenceDate, CreatedAt, ID).
type Transaction struct {
	ID            int64          `json:"id,omitempty"`
	UserID        string         `json:"user_id"`
	AssetID       string         `json:"asset_id"`
	ReferenceDate time.Time      `json:"reference_date"`
	Operation     OperationType  `json:"operation"`
	Quantity      float64        `json:"quantity"`
	Price         float64        `json:"price"`
	GrossAmount   float64        `json:"gross_amount"`
	Fees          float64        `json:"fees"`
	Currency      string         `json:"currency"`
	AssetClass    AssetClass     `json:"asset_class"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Asset is a user-registered investment instrument. AssetID is unique per
// user; Ticker keys external price lookups when present.
type Asset struct {
	ID         int64          `json:"id,omitempty"`
	UserID     string         `json:"user_id"`
	AssetID    string         `json:"asset_id"`
	Name       string         `json:"name"`
	Ticker     string         `json:"ticker,omitempty"`
	AssetClass AssetClass     `json:"asset_class"`
	Category   string         `json:"category,omitempty"`
	Currency   string         `json:"currency"`
	Status     string         `json:"status"`
	AccountID  string         `json:"account_id,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PositionSnapshot records the state of a position right after a
// ledger-mutating operation. For legacy assets whose history predates
// ledger tracking it is the only source of valuation data.
type PositionSnapshot struct {
	ID             int64     `json:"id,omitempty"`
	UserID         string    `json:"user_id"`
	AssetID        string    `json:"asset_id"`
	ReferenceDate  time.Time `json:"reference_date"`
	Quantity       float64   `json:"quantity"`
	AvgPrice       float64   `json:"avg_price"`
	MarketPrice    float64   `json:"market_price"`
	InvestedAmount float64   `json:"invested_amount"`
	MarketValue    float64   `json:"market_value"`
	Source         string    `json:"source"`
	ActionType     string    `json:"action_type"`
	CreatedAt      time.Time `json:"created_at"`
}
