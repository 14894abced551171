package services

import (
	"context"
	"time"

	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// IFIXTicker keys the IFIX daily price history on the quote provider.
const IFIXTicker = "IFIX.SA"

// BenchmarkService assembles the four reference series (CDI, Ibovespa,
// Selic, IFIX) over a set of anchor dates. Any series whose raw data
// cannot be fetched degrades to a flat zero series — a profitability
// widget must always render, with the missing benchmark temporarily blank.
type BenchmarkService struct {
	rates  RatesService
	prices PriceService
}

func NewBenchmarkService(rates RatesService, prices PriceService) *BenchmarkService {
	return &BenchmarkService{rates: rates, prices: prices}
}

func (s *BenchmarkService) BuildAll(ctx context.Context, anchors []time.Time) models.BenchmarkComparison {
	cmp := models.BenchmarkComparison{
		CDI:      s.monthlySeries(ctx, "cdi", anchors),
		Ibovespa: s.monthlySeries(ctx, "ibovespa", anchors),
		Selic:    s.selicSeries(ctx, anchors),
		IFIX:     s.ifixSeries(ctx, anchors),
	}
	cmp.CDIFinal = utils.FormatPercentBR(cmp.CDI.Final())
	cmp.IbovespaFinal = utils.FormatPercentBR(cmp.Ibovespa.Final())
	cmp.SelicFinal = utils.FormatPercentBR(cmp.Selic.Final())
	cmp.IFIXFinal = utils.FormatPercentBR(cmp.IFIX.Final())
	return cmp
}

func (s *BenchmarkService) monthlySeries(ctx context.Context, index string, anchors []time.Time) models.Series {
	table, err := s.rates.GetMonthlyReturns(ctx, index)
	if err != nil {
		logger.FromContext(ctx).Warn("Benchmark table unavailable, using flat series", "index", index, "error", err)
		return processors.FlatSeries(anchors)
	}
	return processors.CompoundMonthlyTable(table, anchors)
}

func (s *BenchmarkService) selicSeries(ctx context.Context, anchors []time.Time) models.Series {
	if len(anchors) == 0 {
		return models.Series{}
	}
	episodes, err := s.prices.GetPrimeRateHistory(ctx, "BR", anchors[0], anchors[len(anchors)-1])
	if err != nil {
		logger.FromContext(ctx).Warn("Prime rate history unavailable, using flat series", "error", err)
		return processors.FlatSeries(anchors)
	}
	return processors.CompoundEpisodicRate(episodes, anchors)
}

func (s *BenchmarkService) ifixSeries(ctx context.Context, anchors []time.Time) models.Series {
	history, err := s.prices.GetQuoteHistory(ctx, IFIXTicker, "1d", "10y")
	if err != nil {
		logger.FromContext(ctx).Warn("IFIX history unavailable, using flat series", "error", err)
		return processors.FlatSeries(anchors)
	}
	return processors.PriceRatioSeries(history, anchors)
}
