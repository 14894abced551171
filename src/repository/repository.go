package repository

import (
	"context"
	"errors"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
)

// ErrAssetNotFound is returned when an operation references an asset the
// user does not own.
var ErrAssetNotFound = errors.New("asset not found")

// TransactionQuery narrows a transaction listing. Start/End bound the
// reference date (inclusive); nil means unbounded.
type TransactionQuery struct {
	UserID  string
	AssetID string
	Filters *models.QueryFilters
	Start   *time.Time
	End     *time.Time
}

// AssetQuery narrows an asset listing.
type AssetQuery struct {
	UserID  string
	AssetID string
	Filters *models.QueryFilters
}

// PositionQuery narrows a latest-position listing. End bounds the snapshot
// reference date (inclusive); nil means "latest overall".
type PositionQuery struct {
	UserID  string
	AssetID string
	Filters *models.QueryFilters
	End     *time.Time
}

// Repository is the persistence boundary consumed by the valuation and
// profitability engines and by the manual-entry surface. It is the sole
// writer of persisted state; everything downstream of it is pure
// computation over data already in memory.
type Repository interface {
	// ListTransactions returns transactions ordered by
	// (reference_date, created_at, id) — the replay order.
	ListTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error)
	ListAssets(ctx context.Context, q AssetQuery) ([]models.Asset, error)
	// ListLatestPositions returns at most one snapshot per asset: the most
	// recent one with reference_date <= q.End.
	ListLatestPositions(ctx context.Context, q PositionQuery) ([]models.PositionSnapshot, error)

	UpsertAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	InsertInvestmentTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	InsertPositionSnapshot(ctx context.Context, snap *models.PositionSnapshot) (*models.PositionSnapshot, error)
	// DeleteAsset removes the asset and cascade-deletes its transactions
	// and snapshots. Returns false when the asset does not exist.
	DeleteAsset(ctx context.Context, userID, assetID string) (bool, error)
}
