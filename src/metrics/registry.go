package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
)

// Request carries the resolved inputs of one metric evaluation. Filters are
// already shape-validated by the engine before a handler sees them, and the
// periods_months filter is pre-resolved into concrete windows.
type Request struct {
	UserID  string
	Filters *models.QueryFilters
	Windows []models.PeriodWindow
	AsOf    time.Time
}

// Handler computes one metric. It fills Status, Data, Meta and Error; the
// engine owns MetricID and fault isolation. A handler that cannot produce
// data returns a result with StatusError or StatusEmpty rather than panicking.
type Handler func(ctx context.Context, req Request) models.MetricResult

// Registry maps metric IDs to handlers. It is populated at startup and
// read-only afterwards, but guarded anyway so tests can register freely.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(id string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = h
}

func (r *Registry) Lookup(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns the registered metric IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
