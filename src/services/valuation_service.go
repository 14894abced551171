package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/repository"
	"github.com/techhub5500/Yield-sub002/src/security/validation"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// TickerResolvable reports whether an asset can be priced through the
// external quote provider: equity class with a well-formed ticker.
func TickerResolvable(asset *models.Asset) bool {
	return asset.AssetClass == models.ClassEquity &&
		asset.Ticker != "" &&
		validation.ValidateTicker(asset.Ticker) == nil
}

// ValuationService reconstructs portfolio value from the transaction ledger
// and point-in-time market prices.
type ValuationService struct {
	repo   repository.Repository
	prices PriceService
}

func NewValuationService(repo repository.Repository, prices PriceService) *ValuationService {
	return &ValuationService{repo: repo, prices: prices}
}

// portfolioData bundles everything a valuation pass needs, fetched once per
// request. The engines downstream are pure functions over this bundle.
type portfolioData struct {
	assets       []models.Asset
	txsByAsset   map[string][]models.Transaction
	snapsByAsset map[string]models.PositionSnapshot
	earliestTx   time.Time
}

func (d *portfolioData) empty() bool {
	return len(d.assets) == 0
}

func (s *ValuationService) loadPortfolio(ctx context.Context, userID string, filters *models.QueryFilters, asOf time.Time) (*portfolioData, error) {
	assets, err := s.repo.ListAssets(ctx, repository.AssetQuery{UserID: userID, Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	txs, err := s.repo.ListTransactions(ctx, repository.TransactionQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	snaps, err := s.repo.ListLatestPositions(ctx, repository.PositionQuery{UserID: userID, End: &asOf})
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	data := &portfolioData{
		assets:       assets,
		txsByAsset:   make(map[string][]models.Transaction),
		snapsByAsset: make(map[string]models.PositionSnapshot),
	}
	included := make(map[string]bool, len(assets))
	for _, a := range assets {
		included[a.AssetID] = true
	}
	for _, tx := range txs {
		if !included[tx.AssetID] {
			continue
		}
		data.txsByAsset[tx.AssetID] = append(data.txsByAsset[tx.AssetID], tx)
		if data.earliestTx.IsZero() || tx.ReferenceDate.Before(data.earliestTx) {
			data.earliestTx = tx.ReferenceDate
		}
	}
	for _, snap := range snaps {
		if included[snap.AssetID] {
			data.snapsByAsset[snap.AssetID] = snap
		}
	}
	return data, nil
}

// pricingContext caches per-ticker price histories for the duration of one
// request, so valuing 24 anchors costs one fetch per ticker, not 24.
type pricingContext struct {
	ctx       context.Context
	prices    PriceService
	histories map[string]processors.PriceMap
}

func newPricingContext(ctx context.Context, prices PriceService) *pricingContext {
	return &pricingContext{ctx: ctx, prices: prices, histories: make(map[string]processors.PriceMap)}
}

func (p *pricingContext) history(ticker string) processors.PriceMap {
	if history, seen := p.histories[ticker]; seen {
		return history
	}
	fetchTicker := ticker
	if !strings.Contains(ticker, ".") {
		fetchTicker = ticker + ".SA"
	}
	history, err := p.prices.GetQuoteHistory(p.ctx, fetchTicker, "1d", "10y")
	if err != nil {
		logger.FromContext(p.ctx).Warn("Quote history unavailable, falling back", "ticker", ticker, "error", err)
		history = nil
	}
	p.histories[ticker] = history
	return history
}

// priceFor resolves the price of an asset at a date following the fallback
// chain: external market price, then the stored snapshot price, then the
// average cost. A failed external lookup never aborts a valuation.
func (p *pricingContext) priceFor(asset *models.Asset, at time.Time, snap models.PositionSnapshot, avgCost float64) (float64, string) {
	if TickerResolvable(asset) {
		if price, ok := processors.NearestPrice(p.history(asset.Ticker), at); ok {
			return price, "market"
		}
	}
	if snap.MarketPrice > 0 {
		return snap.MarketPrice, "snapshot"
	}
	return avgCost, "avg_cost"
}

// Valuate computes the full portfolio valuation as of a date: per-asset
// values, realized aggregates, and the patrimony time series.
func (s *ValuationService) Valuate(ctx context.Context, userID string, filters *models.QueryFilters, asOf time.Time) (*models.PortfolioValuation, error) {
	asOf = utils.DateOnly(asOf)
	data, err := s.loadPortfolio(ctx, userID, filters, asOf)
	if err != nil {
		return nil, err
	}

	pc := newPricingContext(ctx, s.prices)
	out := &models.PortfolioValuation{AsOf: asOf}

	for i := range data.assets {
		asset := &data.assets[i]
		txs := data.txsByAsset[asset.AssetID]
		snap := data.snapsByAsset[asset.AssetID]

		if len(txs) == 0 {
			// Legacy asset: its history predates ledger tracking, so the
			// latest snapshot is the only source of truth.
			if snap.AssetID == "" || snap.Quantity <= 0 {
				continue
			}
			value := snap.MarketValue
			if value == 0 {
				value = snap.Quantity * snap.MarketPrice
			}
			invested := snap.InvestedAmount
			if invested == 0 {
				invested = snap.Quantity * snap.AvgPrice
			}
			out.Assets = append(out.Assets, models.AssetValuation{
				AssetID:       asset.AssetID,
				Name:          asset.Name,
				Ticker:        asset.Ticker,
				AssetClass:    asset.AssetClass,
				Quantity:      snap.Quantity,
				CurrentPrice:  snap.MarketPrice,
				PriceSource:   "snapshot",
				CurrentValue:  value,
				InvestedOpen:  invested,
				UnrealizedPnl: value - invested,
			})
			out.OpenMarketValue += value
			out.InvestedCapital += invested
			continue
		}

		state := processors.ReplayUntil(txs, asOf)
		out.RealizedCash += state.RealizedCash
		out.RealizedResult += state.RealizedResult
		out.RealizedCostBasis += state.RealizedCostBasis

		if state.Quantity <= 0 {
			continue
		}
		price, source := pc.priceFor(asset, asOf, snap, state.AvgCost)
		value := state.Quantity * price
		out.Assets = append(out.Assets, models.AssetValuation{
			AssetID:       asset.AssetID,
			Name:          asset.Name,
			Ticker:        asset.Ticker,
			AssetClass:    asset.AssetClass,
			Quantity:      state.Quantity,
			CurrentPrice:  price,
			PriceSource:   source,
			CurrentValue:  value,
			InvestedOpen:  state.InvestedCapital,
			UnrealizedPnl: value - state.InvestedCapital,
		})
		out.OpenMarketValue += value
		out.InvestedCapital += state.InvestedCapital
	}

	sort.Slice(out.Assets, func(i, j int) bool {
		return out.Assets[i].CurrentValue > out.Assets[j].CurrentValue
	})

	if !data.earliestTx.IsZero() {
		anchors := processors.AnchorDates(data.earliestTx, asOf, processors.MaxAnchorPoints)
		out.History = make([]models.PatrimonyPoint, 0, len(anchors))
		for _, anchor := range anchors {
			out.History = append(out.History, models.PatrimonyPoint{
				Date:  anchor,
				Value: utils.RoundFloat(valueAt(data, pc, anchor), 2),
			})
		}
	}
	return out, nil
}

// Allocation breaks the open market value down by a grouping key. Supported
// keys are asset_class (default), currency, account and category.
func (s *ValuationService) Allocation(ctx context.Context, userID string, filters *models.QueryFilters, asOf time.Time, groupBy string) (*models.AllocationWidget, error) {
	if groupBy == "" {
		groupBy = "asset_class"
	}
	switch groupBy {
	case "asset_class", "currency", "account", "category":
	default:
		return nil, fmt.Errorf("unknown group_by %q", groupBy)
	}
	valuation, err := s.Valuate(ctx, userID, filters, asOf)
	if err != nil {
		return nil, err
	}
	assets, err := s.repo.ListAssets(ctx, repository.AssetQuery{UserID: userID, Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	meta := make(map[string]*models.Asset, len(assets))
	for i := range assets {
		meta[assets[i].AssetID] = &assets[i]
	}

	buckets := make(map[string]float64)
	for _, av := range valuation.Assets {
		key := ""
		switch groupBy {
		case "asset_class":
			key = string(av.AssetClass)
		case "currency":
			if a := meta[av.AssetID]; a != nil {
				key = a.Currency
			}
		case "account":
			if a := meta[av.AssetID]; a != nil {
				key = a.AccountID
			}
		case "category":
			if a := meta[av.AssetID]; a != nil {
				key = a.Category
			}
		}
		if key == "" {
			key = "unassigned"
		}
		buckets[key] += av.CurrentValue
	}

	out := &models.AllocationWidget{
		AsOf:    valuation.AsOf,
		GroupBy: groupBy,
		Total:   utils.RoundFloat(valuation.OpenMarketValue, 2),
	}
	for key, value := range buckets {
		pct := 0.0
		if valuation.OpenMarketValue > 0 {
			pct = utils.RoundFloat(value/valuation.OpenMarketValue*100, 2)
		}
		out.Slices = append(out.Slices, models.AllocationSlice{
			Key:     key,
			Value:   utils.RoundFloat(value, 2),
			Percent: pct,
		})
	}
	sort.Slice(out.Slices, func(i, j int) bool {
		if out.Slices[i].Value != out.Slices[j].Value {
			return out.Slices[i].Value > out.Slices[j].Value
		}
		return out.Slices[i].Key < out.Slices[j].Key
	})
	return out, nil
}

// valueAt computes total patrimony (open market value plus realized cash)
// at a single date. Shared by the patrimony series and the profitability
// engine, so both see identical numbers for identical inputs.
func valueAt(data *portfolioData, pc *pricingContext, at time.Time) float64 {
	var total float64
	for i := range data.assets {
		total += assetValueAt(data, pc, &data.assets[i], at)
	}
	return total
}

// assetValueAt is the single-asset term of valueAt: open value plus realized
// cash for ledger-tracked assets, snapshot value for legacy ones.
func assetValueAt(data *portfolioData, pc *pricingContext, asset *models.Asset, at time.Time) float64 {
	txs := data.txsByAsset[asset.AssetID]
	snap := data.snapsByAsset[asset.AssetID]

	if len(txs) == 0 {
		if snap.AssetID == "" || snap.ReferenceDate.After(at) || snap.Quantity <= 0 {
			return 0
		}
		if snap.MarketValue != 0 {
			return snap.MarketValue
		}
		return snap.Quantity * snap.MarketPrice
	}

	state := processors.ReplayUntil(txs, at)
	total := state.RealizedCash
	if state.Quantity > 0 {
		price, _ := pc.priceFor(asset, at, snap, state.AvgCost)
		total += state.Quantity * price
	}
	return total
}
