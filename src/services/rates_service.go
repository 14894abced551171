package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/techhub5500/Yield-sub002/src/processors"
)

// BCB SGS monthly series: percentage accumulated in the month.
const (
	sgsSeriesCDIMonthly      = 4391
	sgsSeriesIbovespaMonthly = 7832
)

type bcbRatesService struct {
	httpClient http.Client
	baseURL    string
	tableCache *cache.Cache
}

// NewRatesService builds the BCB SGS client behind the CDI and Ibovespa
// monthly-return tables. Tables change once a month, so they are cached
// with a long TTL.
func NewRatesService(baseURL string, timeout, cacheTTL time.Duration) RatesService {
	return &bcbRatesService{
		httpClient: http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tableCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *bcbRatesService) GetMonthlyReturns(ctx context.Context, index string) (processors.MonthlyReturnTable, error) {
	var series int
	switch strings.ToLower(index) {
	case "cdi":
		series = sgsSeriesCDIMonthly
	case "ibovespa":
		series = sgsSeriesIbovespaMonthly
	default:
		return nil, fmt.Errorf("unknown benchmark index %q", index)
	}

	cacheKey := fmt.Sprintf("monthly_returns_%d", series)
	if cached, found := s.tableCache.Get(cacheKey); found {
		return cached.(processors.MonthlyReturnTable), nil
	}

	seriesURL := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?formato=json", s.baseURL, series)
	req, err := http.NewRequestWithContext(ctx, "GET", seriesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SGS series %d: %w", series, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SGS API returned status %d for series %d", resp.StatusCode, series)
	}

	var entries []bcbSeriesEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode SGS series %d: %w", series, err)
	}

	table := make(processors.MonthlyReturnTable)
	for _, e := range entries {
		date, err := time.Parse("02/01/2006", e.Date)
		if err != nil {
			continue
		}
		pct, err := parseBCBValue(e.Value)
		if err != nil {
			continue
		}
		if table[date.Year()] == nil {
			table[date.Year()] = make(map[time.Month]float64)
		}
		table[date.Year()][date.Month()] = pct
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: series %d", ErrNoRateData, series)
	}

	s.tableCache.SetDefault(cacheKey, table)
	return table, nil
}
