package services

import (
	"context"
	"sort"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/repository"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// DefaultPeriodPreset is used when a profitability request carries no
// explicit preset.
const DefaultPeriodPreset = "origin"

// ProfitabilityService computes the profitability widget: cumulative
// portfolio return over a resolved period, benchmark comparison, alpha over
// CDI and the per-asset contribution ranking.
type ProfitabilityService struct {
	repo       repository.Repository
	prices     PriceService
	benchmarks BenchmarkProvider
	valuation  *ValuationService
}

func NewProfitabilityService(repo repository.Repository, prices PriceService, benchmarks BenchmarkProvider) *ProfitabilityService {
	return &ProfitabilityService{
		repo:       repo,
		prices:     prices,
		benchmarks: benchmarks,
		valuation:  NewValuationService(repo, prices),
	}
}

// Compute builds the widget for a user as of a date. An empty portfolio
// still yields a fully-formed widget (HasData=false, zeroed series) so the
// frontend can render a placeholder with benchmark labels intact.
func (s *ProfitabilityService) Compute(ctx context.Context, userID string, filters *models.QueryFilters, asOf time.Time) (*models.ProfitabilityWidget, error) {
	asOf = utils.DateOnly(asOf)
	data, err := s.valuation.loadPortfolio(ctx, userID, filters, asOf)
	if err != nil {
		return nil, err
	}

	preset := DefaultPeriodPreset
	if filters != nil && filters.PeriodPreset != "" {
		preset = filters.PeriodPreset
	}
	window, err := processors.ResolvePreset(preset, asOf, data.earliestTx)
	if err != nil {
		return nil, err
	}
	anchors := processors.AnchorDates(window.Start, window.End, processors.MaxAnchorPoints)

	if data.empty() {
		return emptyWidget(window, anchors), nil
	}

	pc := newPricingContext(ctx, s.prices)
	values := make([]float64, len(anchors))
	for i, anchor := range anchors {
		values[i] = valueAt(data, pc, anchor)
	}

	startValue := values[0]
	endValue := values[len(values)-1]
	portfolio := make(models.Series, len(anchors))
	for i, anchor := range anchors {
		pct := 0.0
		// A zero or negative start has no meaningful base for a percentage;
		// the series stays flat rather than exploding.
		if startValue > 0 {
			pct = utils.RoundFloat((values[i]/startValue-1)*100, 4)
		}
		portfolio[i] = models.SeriesPoint{Date: anchor, CumulativePercent: pct}
	}
	returnPct := portfolio.Final()

	benchmarks := s.benchmarks.BuildAll(ctx, anchors)
	alpha := returnPct - benchmarks.CDI.Final()

	variable, fixed := s.contributions(data, pc, window, endValue)

	return &models.ProfitabilityWidget{
		Period:          window,
		HasData:         true,
		ReturnPct:       returnPct,
		ReturnFormatted: utils.FormatPercentBR(returnPct),
		AlphaCDI:        alpha,
		AlphaFormatted:  utils.FormatPercentBR(alpha),
		StartValue:      utils.RoundFloat(startValue, 2),
		EndValue:        utils.RoundFloat(endValue, 2),
		Portfolio:       portfolio,
		Benchmarks:      benchmarks,
		VariableIncome:  variable,
		FixedIncome:     fixed,
	}, nil
}

// contributions ranks each asset's share of the period return, split into
// the RV and RF groups. Each group is ordered by contribution, best first.
func (s *ProfitabilityService) contributions(data *portfolioData, pc *pricingContext, window models.PeriodWindow, portfolioEnd float64) (variable, fixed []models.AssetContribution) {
	for i := range data.assets {
		asset := &data.assets[i]
		startVal := assetValueAt(data, pc, asset, window.Start)
		endVal := assetValueAt(data, pc, asset, window.End)
		if startVal <= 0 && endVal <= 0 {
			continue
		}

		returnPct := 0.0
		if startVal > 0 {
			returnPct = utils.RoundFloat((endVal/startVal-1)*100, 4)
		}
		weight := 0.0
		if portfolioEnd > 0 {
			weight = utils.RoundFloat(endVal/portfolioEnd, 6)
		}
		contribution := models.AssetContribution{
			AssetID:         asset.AssetID,
			Name:            asset.Name,
			AssetClass:      asset.AssetClass,
			ReturnPct:       returnPct,
			Weight:          weight,
			ContributionPct: utils.RoundFloat(returnPct*weight, 4),
		}
		if asset.AssetClass.IsVariableIncome() {
			variable = append(variable, contribution)
		} else {
			fixed = append(fixed, contribution)
		}
	}

	byContribution := func(list []models.AssetContribution) func(i, j int) bool {
		return func(i, j int) bool { return list[i].ContributionPct > list[j].ContributionPct }
	}
	sort.Slice(variable, byContribution(variable))
	sort.Slice(fixed, byContribution(fixed))
	return variable, fixed
}

// emptyWidget is the placeholder for a user with no assets. Benchmarks are
// flat zero series built locally: there is nothing to compare, so no
// external fetch happens.
func emptyWidget(window models.PeriodWindow, anchors []time.Time) *models.ProfitabilityWidget {
	flat := processors.FlatSeries(anchors)
	zero := utils.FormatPercentBR(0)
	return &models.ProfitabilityWidget{
		Period:          window,
		HasData:         false,
		ReturnFormatted: zero,
		AlphaFormatted:  zero,
		Portfolio:       flat,
		Benchmarks: models.BenchmarkComparison{
			CDI:           flat,
			Ibovespa:      flat,
			Selic:         flat,
			IFIX:          flat,
			CDIFinal:      zero,
			IbovespaFinal: zero,
			SelicFinal:    zero,
			IFIXFinal:     zero,
		},
	}
}
