package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
)

// MetricQuery is one entry of a batch metrics request.
type MetricQuery struct {
	MetricID string               `json:"metric_id"`
	Filters  *models.QueryFilters `json:"filters,omitempty"`
}

// CardQuery groups metric queries under a frontend card.
type CardQuery struct {
	CardID  string        `json:"card_id"`
	Metrics []MetricQuery `json:"metrics"`
}

// Engine evaluates metric batches against a registry. A batch never fails
// as a whole: every entry gets a result, and a panicking or erroring handler
// only poisons its own entry.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Run evaluates the queries concurrently and returns results in query order.
func (e *Engine) Run(ctx context.Context, userID string, queries []MetricQuery) []models.MetricResult {
	results := make([]models.MetricResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q MetricQuery) {
			defer wg.Done()
			results[i] = e.runOne(ctx, userID, q)
		}(i, q)
	}
	wg.Wait()
	return results
}

func (e *Engine) runOne(ctx context.Context, userID string, q MetricQuery) (result models.MetricResult) {
	result = models.MetricResult{MetricID: q.MetricID}

	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Metric handler panicked",
				"metric_id", q.MetricID, "panic", fmt.Sprintf("%v", r))
			result = models.MetricResult{
				MetricID: q.MetricID,
				Status:   models.StatusError,
				Error:    "internal error computing metric",
			}
		}
	}()

	handler, ok := e.registry.Lookup(q.MetricID)
	if !ok {
		result.Status = models.StatusNotFound
		result.Error = fmt.Sprintf("unknown metric %q", q.MetricID)
		return result
	}

	filters := q.Filters
	if filters == nil {
		filters = &models.QueryFilters{}
	}
	if err := filters.Validate(); err != nil {
		result.Status = models.StatusError
		result.Error = err.Error()
		return result
	}

	asOf := filters.ResolveAsOf(time.Now().UTC())
	req := Request{
		UserID:  userID,
		Filters: filters,
		Windows: processors.ResolveWindows(filters.PeriodsMonths, asOf),
		AsOf:    asOf,
	}
	out := handler(ctx, req)
	out.MetricID = q.MetricID
	if out.Status == "" {
		out.Status = models.StatusOK
	}
	return out
}

// RunCards evaluates each card's metrics and rolls their statuses up:
// every entry failed -> error, some failed -> partial_error, none -> ok.
// Empty entries count as successes; an empty portfolio is not a failure.
func (e *Engine) RunCards(ctx context.Context, userID string, cards []CardQuery) []models.CardResult {
	out := make([]models.CardResult, len(cards))
	for i, card := range cards {
		entries := e.Run(ctx, userID, card.Metrics)
		failed := 0
		for _, entry := range entries {
			if entry.Status == models.StatusError || entry.Status == models.StatusNotFound {
				failed++
			}
		}
		status := models.StatusOK
		switch {
		case len(entries) > 0 && failed == len(entries):
			status = models.StatusError
		case failed > 0:
			status = models.StatusPartialError
		}
		out[i] = models.CardResult{CardID: card.CardID, Status: status, Metrics: entries}
	}
	return out
}
