package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
)

// MemoryRepository is an in-memory Repository used by tests and local
// experiments. It mirrors the SQLite implementation's ordering semantics.
type MemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	assets    []models.Asset
	txs       []models.Transaction
	snapshots []models.PositionSnapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) ListTransactions(_ context.Context, q TransactionQuery) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range r.txs {
		if tx.UserID != q.UserID {
			continue
		}
		if q.AssetID != "" && tx.AssetID != q.AssetID {
			continue
		}
		if q.Start != nil && tx.ReferenceDate.Before(*q.Start) {
			continue
		}
		if q.End != nil && tx.ReferenceDate.After(*q.End) {
			continue
		}
		if q.Filters != nil {
			if len(q.Filters.Currencies) > 0 && !stringIn(q.Filters.Currencies, tx.Currency) {
				continue
			}
			if len(q.Filters.AssetClasses) > 0 && !classIn(q.Filters.AssetClasses, tx.AssetClass) {
				continue
			}
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReferenceDate.Equal(out[j].ReferenceDate) {
			return out[i].ReferenceDate.Before(out[j].ReferenceDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) ListAssets(_ context.Context, q AssetQuery) ([]models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Asset
	for _, a := range r.assets {
		if a.UserID != q.UserID {
			continue
		}
		if q.AssetID != "" && a.AssetID != q.AssetID {
			continue
		}
		if q.Filters != nil && !q.Filters.MatchAsset(&a) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

func (r *MemoryRepository) ListLatestPositions(_ context.Context, q PositionQuery) ([]models.PositionSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]models.PositionSnapshot)
	var order []string
	for _, s := range r.snapshots {
		if s.UserID != q.UserID {
			continue
		}
		if q.AssetID != "" && s.AssetID != q.AssetID {
			continue
		}
		if q.End != nil && s.ReferenceDate.After(*q.End) {
			continue
		}
		prev, seen := laterOf(latest, s)
		if !seen {
			order = append(order, s.AssetID)
		}
		latest[s.AssetID] = prev
	}
	out := make([]models.PositionSnapshot, 0, len(latest))
	for _, assetID := range order {
		out = append(out, latest[assetID])
	}
	return out, nil
}

func laterOf(latest map[string]models.PositionSnapshot, s models.PositionSnapshot) (models.PositionSnapshot, bool) {
	prev, seen := latest[s.AssetID]
	if !seen {
		return s, false
	}
	if s.ReferenceDate.After(prev.ReferenceDate) ||
		(s.ReferenceDate.Equal(prev.ReferenceDate) && s.ID > prev.ID) {
		return s, true
	}
	return prev, true
}

func (r *MemoryRepository) UpsertAsset(_ context.Context, asset *models.Asset) (*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.assets {
		if r.assets[i].UserID == asset.UserID && r.assets[i].AssetID == asset.AssetID {
			asset.ID = r.assets[i].ID
			asset.CreatedAt = r.assets[i].CreatedAt
			r.assets[i] = *asset
			return asset, nil
		}
	}
	asset.ID = r.nextID
	r.nextID++
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	r.assets = append(r.assets, *asset)
	return asset, nil
}

func (r *MemoryRepository) InsertInvestmentTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx.ID = r.nextID
	r.nextID++
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	r.txs = append(r.txs, *tx)
	return tx, nil
}

func (r *MemoryRepository) InsertPositionSnapshot(_ context.Context, snap *models.PositionSnapshot) (*models.PositionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap.ID = r.nextID
	r.nextID++
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	r.snapshots = append(r.snapshots, *snap)
	return snap, nil
}

func (r *MemoryRepository) DeleteAsset(_ context.Context, userID, assetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	assets := r.assets[:0]
	for _, a := range r.assets {
		if a.UserID == userID && a.AssetID == assetID {
			found = true
			continue
		}
		assets = append(assets, a)
	}
	r.assets = assets
	if !found {
		return false, nil
	}

	txs := r.txs[:0]
	for _, tx := range r.txs {
		if tx.UserID == userID && tx.AssetID == assetID {
			continue
		}
		txs = append(txs, tx)
	}
	r.txs = txs

	snaps := r.snapshots[:0]
	for _, s := range r.snapshots {
		if s.UserID == userID && s.AssetID == assetID {
			continue
		}
		snaps = append(snaps, s)
	}
	r.snapshots = snaps
	return true, nil
}

func stringIn(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func classIn(list []models.AssetClass, v models.AssetClass) bool {
	for _, c := range list {
		if c == v {
			return true
		}
	}
	return false
}
