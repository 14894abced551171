package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techhub5500/Yield-sub002/src/metrics"
	"github.com/techhub5500/Yield-sub002/src/models"
)

func newTestEngine() *metrics.Engine {
	registry := metrics.NewRegistry()
	registry.Register("test.ok", func(ctx context.Context, req metrics.Request) models.MetricResult {
		return models.MetricResult{Data: map[string]any{"user": req.UserID}}
	})
	registry.Register("test.broken", func(ctx context.Context, req metrics.Request) models.MetricResult {
		return models.MetricResult{Status: models.StatusError, Error: "upstream unavailable"}
	})
	return metrics.NewEngine(registry)
}

type metricsResponse struct {
	Results []models.MetricResult `json:"results"`
}

type cardsResponse struct {
	Cards []models.CardResult `json:"cards"`
}

func TestQueryMetricsBatch(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())

	rec := httptest.NewRecorder()
	h.HandleQueryMetrics(rec, authedRequest(t, "POST", "/api/metrics/query", map[string]any{
		"metrics": []map[string]any{
			{"metric_id": "test.ok"},
			{"metric_id": "test.broken"},
			{"metric_id": "test.missing"},
		},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)

	assert.Equal(t, models.StatusOK, resp.Results[0].Status)
	assert.Equal(t, models.StatusError, resp.Results[1].Status)
	assert.Equal(t, "upstream unavailable", resp.Results[1].Error)
	assert.Equal(t, models.StatusNotFound, resp.Results[2].Status)
}

func TestQueryMetricsPassesUserFromContext(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())

	rec := httptest.NewRecorder()
	h.HandleQueryMetrics(rec, authedRequest(t, "POST", "/api/metrics/query", map[string]any{
		"metrics": []map[string]any{{"metric_id": "test.ok"}},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	data, ok := resp.Results[0].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-1", data["user"])
}

func TestQueryMetricsRejectsMalformedRequests(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())

	cases := []struct {
		name string
		body any
	}{
		{"empty list", map[string]any{"metrics": []map[string]any{}}},
		{"missing field", map[string]any{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleQueryMetrics(rec, authedRequest(t, "POST", "/api/metrics/query", c.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		req := authedRequest(t, "POST", "/api/metrics/query", nil)
		req.Body = http.NoBody
		rec := httptest.NewRecorder()
		h.HandleQueryMetrics(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueryMetricsSurfacesFilterErrors(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())

	rec := httptest.NewRecorder()
	h.HandleQueryMetrics(rec, authedRequest(t, "POST", "/api/metrics/query", map[string]any{
		"metrics": []map[string]any{
			{"metric_id": "test.ok", "filters": map[string]any{"asset_classes": []string{"bonds"}}},
		},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.StatusError, resp.Results[0].Status)
	assert.NotEmpty(t, resp.Results[0].Error)
}

func TestQueryCardsRollsUpStatuses(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())

	rec := httptest.NewRecorder()
	h.HandleQueryCards(rec, authedRequest(t, "POST", "/api/cards/query", map[string]any{
		"cards": []map[string]any{
			{"card_id": "healthy", "metrics": []map[string]any{{"metric_id": "test.ok"}}},
			{"card_id": "mixed", "metrics": []map[string]any{{"metric_id": "test.ok"}, {"metric_id": "test.broken"}}},
			{"card_id": "dead", "metrics": []map[string]any{{"metric_id": "test.broken"}}},
		},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp cardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Cards, 3)

	assert.Equal(t, models.StatusOK, resp.Cards[0].Status)
	assert.Equal(t, models.StatusPartialError, resp.Cards[1].Status)
	assert.Equal(t, models.StatusError, resp.Cards[2].Status)
	assert.Len(t, resp.Cards[1].Metrics, 2)
}

func TestQueryCardsRejectsEmptyList(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())
	rec := httptest.NewRecorder()
	h.HandleQueryCards(rec, authedRequest(t, "POST", "/api/cards/query", map[string]any{"cards": []map[string]any{}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpointsRequireAuthentication(t *testing.T) {
	h := NewMetricsHandler(newTestEngine())
	for _, endpoint := range []func(http.ResponseWriter, *http.Request){h.HandleQueryMetrics, h.HandleQueryCards} {
		req := httptest.NewRequest("POST", "/api/metrics/query", http.NoBody)
		rec := httptest.NewRecorder()
		endpoint(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}
