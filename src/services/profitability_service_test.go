package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/repository"
)

func TestComputeEmptyPortfolio(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewProfitabilityService(repo, &stubPriceService{}, &stubBenchmarks{})

	widget, err := svc.Compute(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)

	assert.False(t, widget.HasData)
	assert.Equal(t, "0,00%", widget.ReturnFormatted)
	assert.Equal(t, "0,00%", widget.AlphaFormatted)
	assert.Equal(t, "0,00%", widget.Benchmarks.CDIFinal)
	assert.Equal(t, "0,00%", widget.Benchmarks.IbovespaFinal)
	assert.Equal(t, "0,00%", widget.Benchmarks.SelicFinal)
	assert.Equal(t, "0,00%", widget.Benchmarks.IFIXFinal)
	assert.NotEmpty(t, widget.Portfolio)
}

func TestComputeReturnAndAlpha(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-06-01"), 100, 10)

	prices := &stubPriceService{histories: map[string]processors.PriceMap{
		"PETR4.SA": {
			"2025-06-01": 10,
			"2025-06-10": 12,
		},
	}}
	svc := NewProfitabilityService(repo, prices, &stubBenchmarks{cdiFinal: 5})

	filters := &models.QueryFilters{PeriodPreset: "origin"}
	widget, err := svc.Compute(context.Background(), testUser, filters, d("2025-06-10"))
	require.NoError(t, err)

	assert.True(t, widget.HasData)
	assert.Equal(t, "origin", widget.Period.Label)
	assert.Equal(t, d("2025-06-01"), widget.Period.Start)
	assert.Equal(t, d("2025-06-10"), widget.Period.End)

	assert.InDelta(t, 1000.0, widget.StartValue, 1e-9)
	assert.InDelta(t, 1200.0, widget.EndValue, 1e-9)
	assert.InDelta(t, 20.0, widget.ReturnPct, 1e-6)
	assert.Equal(t, "20,00%", widget.ReturnFormatted)
	assert.InDelta(t, 15.0, widget.AlphaCDI, 1e-6)
	assert.Equal(t, "15,00%", widget.AlphaFormatted)

	require.NotEmpty(t, widget.Portfolio)
	assert.Zero(t, widget.Portfolio[0].CumulativePercent)
	assert.InDelta(t, 20.0, widget.Portfolio.Final(), 1e-6)
}

func TestComputeZeroStartValueGuard(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	// First purchase happens months after the window opens, so the series
	// base is zero and percentages have no meaningful denominator.
	seedBuy(t, repo, "petr4", d("2025-05-20"), 100, 10)

	svc := NewProfitabilityService(repo, &stubPriceService{quoteErr: ErrNoQuoteData}, &stubBenchmarks{})
	filters := &models.QueryFilters{PeriodPreset: "12m"}
	widget, err := svc.Compute(context.Background(), testUser, filters, d("2025-06-10"))
	require.NoError(t, err)

	assert.Zero(t, widget.ReturnPct)
	for _, p := range widget.Portfolio {
		assert.False(t, math.IsNaN(p.CumulativePercent))
		assert.False(t, math.IsInf(p.CumulativePercent, 0))
		assert.Zero(t, p.CumulativePercent)
	}
}

func TestComputeContributionsSplitAndRanked(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedAsset(t, repo, "vale3", "VALE3", models.ClassEquity)
	seedAsset(t, repo, "cdb-x", "", models.ClassFixedIncome)
	seedBuy(t, repo, "petr4", d("2025-06-01"), 100, 10)
	seedBuy(t, repo, "vale3", d("2025-06-01"), 100, 10)
	seedBuy(t, repo, "cdb-x", d("2025-06-01"), 10, 100)

	prices := &stubPriceService{histories: map[string]processors.PriceMap{
		"PETR4.SA": {"2025-06-01": 10, "2025-06-10": 15},
		"VALE3.SA": {"2025-06-01": 10, "2025-06-10": 11},
	}}
	svc := NewProfitabilityService(repo, prices, &stubBenchmarks{})

	filters := &models.QueryFilters{PeriodPreset: "origin"}
	widget, err := svc.Compute(context.Background(), testUser, filters, d("2025-06-10"))
	require.NoError(t, err)

	require.Len(t, widget.VariableIncome, 2)
	require.Len(t, widget.FixedIncome, 1)

	// PETR4 gained 50%, VALE3 10%; the bigger winner ranks first.
	assert.Equal(t, "petr4", widget.VariableIncome[0].AssetID)
	assert.Equal(t, "vale3", widget.VariableIncome[1].AssetID)
	assert.InDelta(t, 50.0, widget.VariableIncome[0].ReturnPct, 1e-6)
	assert.InDelta(t, 10.0, widget.VariableIncome[1].ReturnPct, 1e-6)
	assert.Greater(t, widget.VariableIncome[0].ContributionPct, widget.VariableIncome[1].ContributionPct)

	assert.Equal(t, "cdb-x", widget.FixedIncome[0].AssetID)
	assert.Zero(t, widget.FixedIncome[0].ReturnPct)

	for _, c := range append(widget.VariableIncome, widget.FixedIncome...) {
		assert.GreaterOrEqual(t, c.Weight, 0.0)
		assert.LessOrEqual(t, c.Weight, 1.0)
	}
}

func TestComputeRejectsUnknownPreset(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-06-01"), 100, 10)

	svc := NewProfitabilityService(repo, &stubPriceService{}, &stubBenchmarks{})
	filters := &models.QueryFilters{PeriodPreset: "fortnight"}
	_, err := svc.Compute(context.Background(), testUser, filters, d("2025-06-10"))
	assert.Error(t, err)
}

func TestComputeDefaultsToOriginPreset(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-06-01"), 100, 10)

	svc := NewProfitabilityService(repo, &stubPriceService{quoteErr: ErrNoQuoteData}, &stubBenchmarks{})
	widget, err := svc.Compute(context.Background(), testUser, nil, d("2025-06-10"))
	require.NoError(t, err)
	assert.Equal(t, "origin", widget.Period.Label)
	assert.Equal(t, d("2025-06-01"), widget.Period.Start)
}
