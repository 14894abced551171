package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/techhub5500/Yield-sub002/src/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(date string, op models.OperationType, qty, price, gross, fees float64) models.Transaction {
	return models.Transaction{
		ReferenceDate: day(date),
		Operation:     op,
		Quantity:      qty,
		Price:         price,
		GrossAmount:   gross,
		Fees:          fees,
	}
}

func TestReplayUntil_BuyThenPartialSell(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 100, 10, 0, 0),
		tx("2025-02-10", models.OperationSell, 40, 15, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.InDelta(t, 60, state.Quantity, 1e-9)
	assert.InDelta(t, 10, state.AvgCost, 1e-9)
	assert.InDelta(t, 600, state.RealizedCash, 1e-9)
	assert.InDelta(t, 200, state.RealizedResult, 1e-9)
	assert.InDelta(t, 400, state.RealizedCostBasis, 1e-9)
	assert.InDelta(t, 600, state.InvestedCapital, 1e-9)
}

func TestReplayUntil_OverSellClamps(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 10, 10, 0, 0),
		tx("2025-02-10", models.OperationSell, 50, 12, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.Zero(t, state.Quantity)
	assert.Zero(t, state.AvgCost)
	// Cost basis only covers the ten units that were actually held.
	assert.InDelta(t, 100, state.RealizedCostBasis, 1e-9)
}

func TestReplayUntil_SellToZeroResetsAvgCost(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 5, 20, 0, 0),
		tx("2025-01-20", models.OperationSell, 5, 25, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.Zero(t, state.Quantity)
	assert.Zero(t, state.AvgCost)
	assert.Zero(t, state.InvestedCapital)
}

func TestReplayUntil_AvgCostAccumulation(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationCreate, 100, 10, 0, 0),
		tx("2025-02-10", models.OperationBuy, 100, 20, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.InDelta(t, 200, state.Quantity, 1e-9)
	assert.InDelta(t, 15, state.AvgCost, 1e-9)
}

func TestReplayUntil_GrossAmountTakesPrecedence(t *testing.T) {
	// When gross_amount is present it overrides quantity*price+fees.
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 10, 99, 500, 99),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.InDelta(t, 50, state.AvgCost, 1e-9)
}

func TestReplayUntil_FeesAffectCostAndProceeds(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 10, 10, 0, 5),
		tx("2025-02-10", models.OperationSell, 10, 12, 0, 3),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	// Buy cost 105 -> avg 10.5; proceeds 117; result 117-105=12.
	assert.InDelta(t, 117, state.RealizedCash, 1e-9)
	assert.InDelta(t, 12, state.RealizedResult, 1e-9)
}

func TestReplayUntil_IncomeOnlyMovesRealized(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 10, 10, 0, 0),
		tx("2025-03-10", models.OperationIncome, 0, 0, 25, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.InDelta(t, 10, state.Quantity, 1e-9)
	assert.InDelta(t, 10, state.AvgCost, 1e-9)
	assert.InDelta(t, 25, state.RealizedCash, 1e-9)
	assert.InDelta(t, 25, state.RealizedResult, 1e-9)
}

func TestReplayUntil_BalanceUpdateIsCostNeutral(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 10, 10, 0, 0),
		tx("2025-02-10", models.OperationBalanceUpdate, 10, 42, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-12-31"))

	assert.InDelta(t, 10, state.Quantity, 1e-9)
	assert.InDelta(t, 10, state.AvgCost, 1e-9)
	assert.Zero(t, state.RealizedCash)
}

func TestReplayUntil_StopsAtTargetDate(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 100, 10, 0, 0),
		tx("2025-06-10", models.OperationSell, 50, 15, 0, 0),
	}

	state := ReplayUntil(txs, day("2025-03-01"))

	assert.InDelta(t, 100, state.Quantity, 1e-9)
	assert.Zero(t, state.RealizedCash)
}

func TestReplayUntil_Deterministic(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-10", models.OperationBuy, 100, 10, 0, 2),
		tx("2025-01-10", models.OperationBuy, 50, 11, 0, 1),
		tx("2025-02-01", models.OperationSell, 30, 14, 0, 1),
		tx("2025-03-01", models.OperationIncome, 0, 0, 12.5, 0),
	}

	first := ReplayUntil(txs, day("2025-12-31"))
	second := ReplayUntil(txs, day("2025-12-31"))

	assert.Equal(t, first, second)
}

func TestReplayUntil_QuantityNeverNegative(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", models.OperationBuy, 3, 10, 0, 0),
		tx("2025-01-06", models.OperationSell, 5, 10, 0, 0),
		tx("2025-01-07", models.OperationSell, 5, 10, 0, 0),
		tx("2025-01-08", models.OperationBuy, 2, 10, 0, 0),
		tx("2025-01-09", models.OperationSell, 9, 10, 0, 0),
	}

	for _, target := range []string{"2025-01-05", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"} {
		state := ReplayUntil(txs, day(target))
		assert.GreaterOrEqual(t, state.Quantity, 0.0, "target %s", target)
	}
}
