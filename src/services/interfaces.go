package services

import (
	"context"
	"errors"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
)

// Common service errors.
var (
	ErrNoQuoteData = errors.New("no quote data available")
	ErrNoRateData  = errors.New("no rate data available")
)

// PriceService fetches external market data. Implementations must tolerate
// upstream failures; callers always degrade to a fallback price rather than
// aborting a valuation.
type PriceService interface {
	// GetQuoteHistory returns the daily close history for a ticker, keyed
	// by ISO date. interval/rng follow the chart API conventions ("1d", "10y").
	GetQuoteHistory(ctx context.Context, ticker, interval, rng string) (processors.PriceMap, error)

	// GetPrimeRateHistory returns the episodic prime-rate history (annual
	// percentages) for a country between two dates.
	GetPrimeRateHistory(ctx context.Context, country string, start, end time.Time) ([]processors.RateEpisode, error)
}

// RatesService provides the monthly-return tables behind the CDI and
// Ibovespa benchmarks.
type RatesService interface {
	// GetMonthlyReturns returns the monthly percentage table for a known
	// benchmark index ("cdi" or "ibovespa").
	GetMonthlyReturns(ctx context.Context, index string) (processors.MonthlyReturnTable, error)
}

// BenchmarkProvider builds the four reference series aligned to a set of
// anchor dates. Every fetch failure degrades to a flat zero series.
type BenchmarkProvider interface {
	BuildAll(ctx context.Context, anchors []time.Time) models.BenchmarkComparison
}
