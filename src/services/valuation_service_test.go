package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/repository"
)

const testUser = "user-1"

type stubPriceService struct {
	histories map[string]processors.PriceMap
	episodes  []processors.RateEpisode
	quoteErr  error
	rateErr   error
}

func (s *stubPriceService) GetQuoteHistory(_ context.Context, ticker, _, _ string) (processors.PriceMap, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	history, ok := s.histories[ticker]
	if !ok {
		return nil, ErrNoQuoteData
	}
	return history, nil
}

func (s *stubPriceService) GetPrimeRateHistory(_ context.Context, _ string, _, _ time.Time) ([]processors.RateEpisode, error) {
	if s.rateErr != nil {
		return nil, s.rateErr
	}
	if len(s.episodes) == 0 {
		return nil, ErrNoRateData
	}
	return s.episodes, nil
}

type stubBenchmarks struct {
	cdiFinal float64
}

func (s *stubBenchmarks) BuildAll(_ context.Context, anchors []time.Time) models.BenchmarkComparison {
	cdi := processors.FlatSeries(anchors)
	if len(cdi) > 0 {
		cdi[len(cdi)-1].CumulativePercent = s.cdiFinal
	}
	return models.BenchmarkComparison{
		CDI:      cdi,
		Ibovespa: processors.FlatSeries(anchors),
		Selic:    processors.FlatSeries(anchors),
		IFIX:     processors.FlatSeries(anchors),
	}
}

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedAsset(t *testing.T, repo *repository.MemoryRepository, assetID, ticker string, class models.AssetClass) {
	t.Helper()
	_, err := repo.UpsertAsset(context.Background(), &models.Asset{
		UserID:     testUser,
		AssetID:    assetID,
		Name:       assetID,
		Ticker:     ticker,
		AssetClass: class,
		Currency:   "BRL",
		Status:     "active",
	})
	require.NoError(t, err)
}

func seedBuy(t *testing.T, repo *repository.MemoryRepository, assetID string, date time.Time, qty, price float64) {
	t.Helper()
	_, err := repo.InsertInvestmentTransaction(context.Background(), &models.Transaction{
		UserID:        testUser,
		AssetID:       assetID,
		ReferenceDate: date,
		Operation:     models.OperationBuy,
		Quantity:      qty,
		Price:         price,
		Currency:      "BRL",
	})
	require.NoError(t, err)
}

func seedSell(t *testing.T, repo *repository.MemoryRepository, assetID string, date time.Time, qty, price float64) {
	t.Helper()
	_, err := repo.InsertInvestmentTransaction(context.Background(), &models.Transaction{
		UserID:        testUser,
		AssetID:       assetID,
		ReferenceDate: date,
		Operation:     models.OperationSell,
		Quantity:      qty,
		Price:         price,
		Currency:      "BRL",
	})
	require.NoError(t, err)
}

func TestValuateUsesMarketPriceWhenAvailable(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-01-10"), 100, 10)

	prices := &stubPriceService{histories: map[string]processors.PriceMap{
		"PETR4.SA": {"2025-06-30": 12},
	}}
	svc := NewValuationService(repo, prices)

	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, out.Assets, 1)

	av := out.Assets[0]
	assert.Equal(t, "market", av.PriceSource)
	assert.InDelta(t, 12.0, av.CurrentPrice, 1e-9)
	assert.InDelta(t, 1200.0, av.CurrentValue, 1e-9)
	assert.InDelta(t, 200.0, av.UnrealizedPnl, 1e-9)
	assert.InDelta(t, 1200.0, out.OpenMarketValue, 1e-9)
}

func TestValuateFallsBackToSnapshotPrice(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "cdb-x", "", models.ClassFixedIncome)
	seedBuy(t, repo, "cdb-x", d("2025-01-10"), 100, 10)
	_, err := repo.InsertPositionSnapshot(context.Background(), &models.PositionSnapshot{
		UserID:        testUser,
		AssetID:       "cdb-x",
		ReferenceDate: d("2025-05-01"),
		Quantity:      100,
		MarketPrice:   11,
	})
	require.NoError(t, err)

	svc := NewValuationService(repo, &stubPriceService{})
	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, out.Assets, 1)
	assert.Equal(t, "snapshot", out.Assets[0].PriceSource)
	assert.InDelta(t, 1100.0, out.Assets[0].CurrentValue, 1e-9)
}

func TestValuateFallsBackToAvgCost(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-01-10"), 100, 10)

	svc := NewValuationService(repo, &stubPriceService{quoteErr: ErrNoQuoteData})
	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, out.Assets, 1)
	assert.Equal(t, "avg_cost", out.Assets[0].PriceSource)
	assert.InDelta(t, 1000.0, out.Assets[0].CurrentValue, 1e-9)
	assert.InDelta(t, 0.0, out.Assets[0].UnrealizedPnl, 1e-9)
}

func TestValuateLegacySnapshotAsset(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "legacy", "", models.ClassFunds)
	_, err := repo.InsertPositionSnapshot(context.Background(), &models.PositionSnapshot{
		UserID:         testUser,
		AssetID:        "legacy",
		ReferenceDate:  d("2025-03-01"),
		Quantity:       5,
		MarketPrice:    100,
		MarketValue:    500,
		InvestedAmount: 400,
	})
	require.NoError(t, err)

	svc := NewValuationService(repo, &stubPriceService{})
	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)
	require.Len(t, out.Assets, 1)
	assert.Equal(t, "snapshot", out.Assets[0].PriceSource)
	assert.InDelta(t, 500.0, out.Assets[0].CurrentValue, 1e-9)
	assert.InDelta(t, 100.0, out.Assets[0].UnrealizedPnl, 1e-9)
	assert.Zero(t, out.RealizedCash)
}

func TestValuateRealizedAggregates(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2025-01-10"), 100, 10)
	seedSell(t, repo, "petr4", d("2025-02-10"), 40, 15)

	svc := NewValuationService(repo, &stubPriceService{quoteErr: ErrNoQuoteData})
	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)

	assert.InDelta(t, 600.0, out.RealizedCash, 1e-9)
	assert.InDelta(t, 200.0, out.RealizedResult, 1e-9)
	assert.InDelta(t, 400.0, out.RealizedCostBasis, 1e-9)
	assert.InDelta(t, 600.0, out.InvestedCapital, 1e-9)
	assert.InDelta(t, 600.0, out.OpenMarketValue, 1e-9)
}

func TestValuateHistoryAnchors(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedBuy(t, repo, "petr4", d("2024-01-02"), 100, 10)

	svc := NewValuationService(repo, &stubPriceService{quoteErr: ErrNoQuoteData})
	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)

	require.NotEmpty(t, out.History)
	assert.LessOrEqual(t, len(out.History), processors.MaxAnchorPoints)
	assert.Equal(t, d("2024-01-02"), out.History[0].Date)
	assert.Equal(t, d("2025-06-30"), out.History[len(out.History)-1].Date)
	for _, p := range out.History {
		assert.InDelta(t, 1000.0, p.Value, 1e-9)
	}
}

func TestValuateAppliesAssetFilters(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedAsset(t, repo, "cdb-x", "", models.ClassFixedIncome)
	seedBuy(t, repo, "petr4", d("2025-01-10"), 100, 10)
	seedBuy(t, repo, "cdb-x", d("2025-01-10"), 10, 100)

	svc := NewValuationService(repo, &stubPriceService{quoteErr: ErrNoQuoteData})
	filters := &models.QueryFilters{AssetClasses: []models.AssetClass{models.ClassEquity}}
	out, err := svc.Valuate(context.Background(), testUser, filters, d("2025-06-30"))
	require.NoError(t, err)

	require.Len(t, out.Assets, 1)
	assert.Equal(t, "petr4", out.Assets[0].AssetID)
}

func TestValuateEmptyPortfolio(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewValuationService(repo, &stubPriceService{})

	out, err := svc.Valuate(context.Background(), testUser, nil, d("2025-06-30"))
	require.NoError(t, err)
	assert.Empty(t, out.Assets)
	assert.Empty(t, out.History)
	assert.Zero(t, out.OpenMarketValue)
}

func TestAllocationByAssetClass(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedAsset(t, repo, "petr4", "PETR4", models.ClassEquity)
	seedAsset(t, repo, "cdb-x", "", models.ClassFixedIncome)
	seedBuy(t, repo, "petr4", d("2025-01-10"), 100, 30)
	seedBuy(t, repo, "cdb-x", d("2025-01-10"), 10, 100)

	svc := NewValuationService(repo, &stubPriceService{quoteErr: ErrNoQuoteData})
	out, err := svc.Allocation(context.Background(), testUser, nil, d("2025-06-30"), "")
	require.NoError(t, err)

	assert.Equal(t, "asset_class", out.GroupBy)
	assert.InDelta(t, 4000.0, out.Total, 1e-9)
	require.Len(t, out.Slices, 2)
	assert.Equal(t, string(models.ClassEquity), out.Slices[0].Key)
	assert.InDelta(t, 75.0, out.Slices[0].Percent, 1e-9)
	assert.InDelta(t, 25.0, out.Slices[1].Percent, 1e-9)
}

func TestAllocationRejectsUnknownGroupBy(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewValuationService(repo, &stubPriceService{})

	_, err := svc.Allocation(context.Background(), testUser, nil, d("2025-06-30"), "flavor")
	assert.Error(t, err)
}

func TestTickerResolvable(t *testing.T) {
	cases := []struct {
		class  models.AssetClass
		ticker string
		want   bool
	}{
		{models.ClassEquity, "PETR4", true},
		{models.ClassEquity, "BOVA11", true},
		{models.ClassEquity, "VALE3.SA", true},
		{models.ClassEquity, "", false},
		{models.ClassEquity, "petr4", false},
		{models.ClassEquity, "PE4", false},
		{models.ClassFixedIncome, "PETR4", false},
	}
	for _, c := range cases {
		got := TickerResolvable(&models.Asset{AssetClass: c.class, Ticker: c.ticker})
		assert.Equal(t, c.want, got, "class=%s ticker=%q", c.class, c.ticker)
	}
}
