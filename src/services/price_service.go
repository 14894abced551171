package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/utils"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type yahooHistoryResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// bcbSeriesEntry is one row of a BCB SGS series response.
type bcbSeriesEntry struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

type priceServiceImpl struct {
	httpClient    http.Client
	quoteBaseURL  string
	ratesBaseURL  string
	quoteCache    *cache.Cache
	crumb         string
	isInitialized bool
	mu            sync.Mutex
}

// NewPriceService builds the market-data client. Quote history comes from
// the Yahoo chart API (session + crumb handshake); prime-rate history comes
// from the BCB SGS API. Responses are cached with a TTL so a request that
// values many anchors only fetches each ticker once.
func NewPriceService(quoteBaseURL, ratesBaseURL string, timeout, cacheTTL time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	s := &priceServiceImpl{
		httpClient:   http.Client{Jar: jar, Timeout: timeout},
		quoteBaseURL: strings.TrimRight(quoteBaseURL, "/"),
		ratesBaseURL: strings.TrimRight(ratesBaseURL, "/"),
		quoteCache:   cache.New(cacheTTL, 2*cacheTTL),
	}

	go s.initializeSession()

	return s
}

func (s *priceServiceImpl) initializeSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized && s.crumb != "" {
		return
	}

	logger.L.Info("Initializing quote provider session...")
	for _, target := range []string{"https://fc.yahoo.com", "https://finance.yahoo.com"} {
		req, _ := http.NewRequest("GET", target, nil)
		req.Header.Set("User-Agent", userAgent)
		if resp, err := s.httpClient.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, _ := http.NewRequest("GET", s.quoteBaseURL+"/v1/test/getcrumb", nil)
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.L.Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.crumb = string(body)
		s.isInitialized = true
		logger.L.Info("Quote provider session initialized")
	} else {
		logger.L.Warn("Failed to fetch crumb", "status", resp.Status)
	}
}

func (s *priceServiceImpl) ensureSession() {
	s.mu.Lock()
	needsInit := !s.isInitialized || s.crumb == ""
	s.mu.Unlock()
	if needsInit {
		s.initializeSession()
	}
}

func (s *priceServiceImpl) GetQuoteHistory(ctx context.Context, ticker, interval, rng string) (processors.PriceMap, error) {
	cacheKey := fmt.Sprintf("quotes_%s_%s_%s", ticker, interval, rng)
	if cached, found := s.quoteCache.Get(cacheKey); found {
		return cached.(processors.PriceMap), nil
	}

	s.ensureSession()
	historyURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s&crumb=%s",
		s.quoteBaseURL, url.PathEscape(ticker), interval, rng, url.QueryEscape(s.crumb))

	req, err := http.NewRequestWithContext(ctx, "GET", historyURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote history for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.mu.Lock()
		s.isInitialized = false
		s.mu.Unlock()
		return nil, fmt.Errorf("quote API returned 401 (crumb invalid) for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d for %s", resp.StatusCode, ticker)
	}

	var data yahooHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode quote history for %s: %w", ticker, err)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuoteData, ticker)
	}

	result := data.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(result.Timestamp) != len(closes) {
		return nil, fmt.Errorf("quote history size mismatch for %s", ticker)
	}

	priceMap := make(processors.PriceMap, len(closes))
	for i, ts := range result.Timestamp {
		if closes[i] == 0 {
			continue
		}
		priceMap[time.Unix(ts, 0).UTC().Format(utils.ISODateFormat)] = closes[i]
	}
	if len(priceMap) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuoteData, ticker)
	}

	s.quoteCache.SetDefault(cacheKey, priceMap)
	return priceMap, nil
}

// SGS series 432 carries the Selic target rate (annual %), published on
// every COPOM decision and effective until superseded.
const sgsSeriesSelicTarget = 432

func (s *priceServiceImpl) GetPrimeRateHistory(ctx context.Context, country string, start, end time.Time) ([]processors.RateEpisode, error) {
	if !strings.EqualFold(country, "BR") {
		return nil, fmt.Errorf("%w: unsupported country %q", ErrNoRateData, country)
	}

	cacheKey := fmt.Sprintf("prime_rate_%s_%s_%s", country,
		start.Format(utils.ISODateFormat), end.Format(utils.ISODateFormat))
	if cached, found := s.quoteCache.Get(cacheKey); found {
		return cached.([]processors.RateEpisode), nil
	}

	entries, err := s.fetchSGSSeries(ctx, sgsSeriesSelicTarget, start, end)
	if err != nil {
		return nil, err
	}

	episodes := make([]processors.RateEpisode, 0, len(entries))
	var lastRate float64 = -1
	for _, e := range entries {
		date, err := time.Parse("02/01/2006", e.Date)
		if err != nil {
			continue
		}
		rate, err := parseBCBValue(e.Value)
		if err != nil {
			continue
		}
		// The daily series repeats the rate until it changes; only the
		// change points matter for compounding.
		if rate == lastRate {
			continue
		}
		lastRate = rate
		episodes = append(episodes, processors.RateEpisode{Date: date, AnnualRatePct: rate})
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("%w: series %d", ErrNoRateData, sgsSeriesSelicTarget)
	}

	s.quoteCache.SetDefault(cacheKey, episodes)
	return episodes, nil
}

func (s *priceServiceImpl) fetchSGSSeries(ctx context.Context, series int, start, end time.Time) ([]bcbSeriesEntry, error) {
	seriesURL := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		s.ratesBaseURL, series, start.Format("02/01/2006"), end.Format("02/01/2006"))

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
	return entries, nil
}

func parseBCBValue(raw string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(raw), ",", ".", 1), 64)
}
