package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// SQLiteRepository implements Repository over the application database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, asset_id, reference_date, operation, quantity, price,
		       gross_amount, fees, currency, asset_class, metadata, created_at
		FROM investment_transactions
		WHERE user_id = ?`
	args := []any{q.UserID}

	if q.AssetID != "" {
		query += " AND asset_id = ?"
		args = append(args, q.AssetID)
	}
	if q.Start != nil {
		query += " AND reference_date >= ?"
		args = append(args, q.Start.Format(utils.ISODateFormat))
	}
	if q.End != nil {
		query += " AND reference_date <= ?"
		args = append(args, q.End.Format(utils.ISODateFormat))
	}
	if q.Filters != nil {
		if clause, clauseArgs := inClause("currency", q.Filters.Currencies); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
		if clause, clauseArgs := inClause("asset_class", assetClassStrings(q.Filters.AssetClasses)); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
	}
	query += " ORDER BY reference_date ASC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for user %s: %w", q.UserID, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var refDate, createdAt, metadata string
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.AssetID, &refDate, &tx.Operation, &tx.Quantity, &tx.Price,
			&tx.GrossAmount, &tx.Fees, &tx.Currency, &tx.AssetClass, &metadata, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		tx.ReferenceDate = parseStoredDate(refDate)
		tx.CreatedAt = parseStoredTime(createdAt)
		tx.Metadata = decodeJSONMap(metadata)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) ListAssets(ctx context.Context, q AssetQuery) ([]models.Asset, error) {
	query := `
		SELECT id, user_id, asset_id, name, ticker, asset_class, category, currency,
		       status, account_id, tags, metadata, created_at
		FROM assets
		WHERE user_id = ?`
	args := []any{q.UserID}

	if q.AssetID != "" {
		query += " AND asset_id = ?"
		args = append(args, q.AssetID)
	}
	if q.Filters != nil {
		if clause, clauseArgs := inClause("currency", q.Filters.Currencies); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
		if clause, clauseArgs := inClause("asset_class", assetClassStrings(q.Filters.AssetClasses)); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
		if clause, clauseArgs := inClause("status", q.Filters.Statuses); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
		if clause, clauseArgs := inClause("account_id", q.Filters.AccountIDs); clause != "" {
			query += clause
			args = append(args, clauseArgs...)
		}
	}
	query += " ORDER BY asset_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying assets for user %s: %w", q.UserID, err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		var tags, metadata, createdAt string
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.AssetID, &a.Name, &a.Ticker, &a.AssetClass, &a.Category,
			&a.Currency, &a.Status, &a.AccountID, &tags, &metadata, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning asset row: %w", err)
		}
		a.CreatedAt = parseStoredTime(createdAt)
		a.Tags = decodeJSONList(tags)
		a.Metadata = decodeJSONMap(metadata)
		// Tag filtering happens in memory; tags are stored as a JSON list.
		if q.Filters != nil && len(q.Filters.Tags) > 0 && !q.Filters.MatchAsset(&a) {
			continue
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRepository) ListLatestPositions(ctx context.Context, q PositionQuery) ([]models.PositionSnapshot, error) {
	query := `
		SELECT id, user_id, asset_id, reference_date, quantity, avg_price,
		       market_price, invested_amount, market_value, source, action_type, created_at
		FROM position_snapshots
		WHERE user_id = ?`
	args := []any{q.UserID}
	if q.AssetID != "" {
		query += " AND asset_id = ?"
		args = append(args, q.AssetID)
	}
	if q.End != nil {
		query += " AND reference_date <= ?"
		args = append(args, q.End.Format(utils.ISODateFormat))
	}
	query += " ORDER BY reference_date ASC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying positions for user %s: %w", q.UserID, err)
	}
	defer rows.Close()

	// Rows arrive in chronological order; keeping the last row seen per
	// asset yields the most recent snapshot within the bound.
	latest := make(map[string]models.PositionSnapshot)
	var order []string
	for rows.Next() {
		var s models.PositionSnapshot
		var refDate, createdAt string
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.AssetID, &refDate, &s.Quantity, &s.AvgPrice,
			&s.MarketPrice, &s.InvestedAmount, &s.MarketValue, &s.Source, &s.ActionType, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning position row: %w", err)
		}
		s.ReferenceDate = parseStoredDate(refDate)
		s.CreatedAt = parseStoredTime(createdAt)
		if _, seen := latest[s.AssetID]; !seen {
			order = append(order, s.AssetID)
		}
		latest[s.AssetID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	snaps := make([]models.PositionSnapshot, 0, len(latest))
	for _, assetID := range order {
		snaps = append(snaps, latest[assetID])
	}
	return snaps, nil
}

func (r *SQLiteRepository) UpsertAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	tags := encodeJSON(asset.Tags)
	metadata := encodeJSON(asset.Metadata)
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (user_id, asset_id, name, ticker, asset_class, category, currency,
		                    status, account_id, tags, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, asset_id) DO UPDATE SET
			name = excluded.name,
			ticker = excluded.ticker,
			asset_class = excluded.asset_class,
			category = excluded.category,
			currency = excluded.currency,
			status = excluded.status,
			account_id = excluded.account_id,
			tags = excluded.tags,
			metadata = excluded.metadata`,
		asset.UserID, asset.AssetID, asset.Name, asset.Ticker, asset.AssetClass, asset.Category,
		asset.Currency, asset.Status, asset.AccountID, tags, metadata, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("error upserting asset %s: %w", asset.AssetID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		asset.ID = id
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	return asset, nil
}

func (r *SQLiteRepository) InsertInvestmentTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO investment_transactions
			(user_id, asset_id, reference_date, operation, quantity, price,
			 gross_amount, fees, currency, asset_class, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.AssetID, tx.ReferenceDate.Format(utils.ISODateFormat), tx.Operation,
		tx.Quantity, tx.Price, tx.GrossAmount, tx.Fees, tx.Currency, tx.AssetClass,
		encodeJSON(tx.Metadata), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting transaction for asset %s: %w", tx.AssetID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		tx.ID = id
	}
	tx.CreatedAt = now
	return tx, nil
}

func (r *SQLiteRepository) InsertPositionSnapshot(ctx context.Context, snap *models.PositionSnapshot) (*models.PositionSnapshot, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO position_snapshots
			(user_id, asset_id, reference_date, quantity, avg_price, market_price,
			 invested_amount, market_value, source, action_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.UserID, snap.AssetID, snap.ReferenceDate.Format(utils.ISODateFormat),
		snap.Quantity, snap.AvgPrice, snap.MarketPrice, snap.InvestedAmount, snap.MarketValue,
		snap.Source, snap.ActionType, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting position snapshot for asset %s: %w", snap.AssetID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		snap.ID = id
	}
	snap.CreatedAt = now
	return snap, nil
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, userID, assetID string) (bool, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error beginning delete transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx,
		"DELETE FROM investment_transactions WHERE user_id = ? AND asset_id = ?", userID, assetID); err != nil {
		return false, fmt.Errorf("error deleting transactions for asset %s: %w", assetID, err)
	}
	if _, err := dbTx.ExecContext(ctx,
		"DELETE FROM position_snapshots WHERE user_id = ? AND asset_id = ?", userID, assetID); err != nil {
		return false, fmt.Errorf("error deleting snapshots for asset %s: %w", assetID, err)
	}
	res, err := dbTx.ExecContext(ctx,
		"DELETE FROM assets WHERE user_id = ? AND asset_id = ?", userID, assetID)
	if err != nil {
		return false, fmt.Errorf("error deleting asset %s: %w", assetID, err)
	}
	affected, _ := res.RowsAffected()
	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("error committing asset deletion: %w", err)
	}
	return affected > 0, nil
}

func inClause(column string, values []string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return fmt.Sprintf(" AND %s IN (?%s)", column, strings.Repeat(",?", len(values)-1)), args
}

func assetClassStrings(classes []models.AssetClass) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return out
}

func encodeJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeJSONMap(s string) map[string]any {
	if s == "" || s == "null" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func decodeJSONList(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

func parseStoredDate(s string) time.Time {
	t, err := time.Parse(utils.ISODateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, utils.ISODateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
