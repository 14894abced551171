package processors

import (
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
)

// ReplayUntil rebuilds the ledger state for a single asset by replaying its
// transactions up to and including targetDate. The input must already be
// sorted by (reference_date, created_at, id); the scan stops at the first
// transaction past the target, so replay is a prefix scan.
//
// The function is pure: no side effects, no errors. Malformed input is the
// caller's problem — the manual-entry surface validates before persisting.
func ReplayUntil(txs []models.Transaction, targetDate time.Time) models.LedgerState {
	var state models.LedgerState
	for i := range txs {
		tx := &txs[i]
		if tx.ReferenceDate.After(targetDate) {
			break
		}
		applyOperation(&state, tx)
	}
	state.InvestedCapital = state.Quantity * state.AvgCost
	return state
}

func applyOperation(state *models.LedgerState, tx *models.Transaction) {
	switch tx.Operation {
	case models.OperationCreate, models.OperationBuy:
		applyBuy(state, tx)
	case models.OperationSell:
		applySell(state, tx)
	case models.OperationIncome:
		// Income events (dividends, interest) never touch quantity or cost.
		state.RealizedCash += tx.GrossAmount
		state.RealizedResult += tx.GrossAmount
	case models.OperationBalanceUpdate:
		// Balance updates refresh the position snapshot's market value; they
		// are cost-neutral for the ledger.
	}
}

func applyBuy(state *models.LedgerState, tx *models.Transaction) {
	buyCost := tx.GrossAmount
	if buyCost == 0 {
		buyCost = tx.Quantity*tx.Price + tx.Fees
	}
	newQty := state.Quantity + tx.Quantity
	if newQty > 0 {
		state.AvgCost = (state.Quantity*state.AvgCost + buyCost) / newQty
	} else {
		state.AvgCost = 0
	}
	state.Quantity = newQty
}

func applySell(state *models.LedgerState, tx *models.Transaction) {
	// An over-sell is clamped to the held quantity instead of rejected.
	// Kept for compatibility with historical data entered before the
	// quantity check existed; the entry surface rejects new over-sells.
	soldQty := tx.Quantity
	if soldQty > state.Quantity {
		soldQty = state.Quantity
	}
	if soldQty <= 0 {
		return
	}

	proceeds := tx.GrossAmount
	if proceeds == 0 {
		proceeds = tx.Quantity*tx.Price - tx.Fees
	}
	costBasis := soldQty * state.AvgCost

	state.RealizedCash += proceeds
	state.RealizedResult += proceeds - costBasis
	state.RealizedCostBasis += costBasis

	state.Quantity -= soldQty
	if state.Quantity <= 0 {
		state.Quantity = 0
		state.AvgCost = 0
	}
}
