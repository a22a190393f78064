package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches a lookup
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (r *Repository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// InTx runs fn inside one database transaction. Repository calls made with
// the context handed to fn join the transaction; a nested InTx reuses it.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateAsset inserts a new asset
func (r *Repository) CreateAsset(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO asset.assets (name, uid, email, type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.conn(ctx).QueryRowContext(ctx, query, asset.Name, asset.UID, asset.Email, asset.Type, asset.Balance).
		Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// FindAssetByNameAndUID retrieves an asset by name within one owner
func (r *Repository) FindAssetByNameAndUID(ctx context.Context, name, uid string) (*models.Asset, error) {
	query := `
		SELECT id, name, uid, email, type, balance, created_at, updated_at
		FROM asset.assets
		WHERE name = $1 AND uid = $2`
	return r.scanAsset(r.conn(ctx).QueryRowContext(ctx, query, name, uid))
}

// FindAssetByName retrieves the oldest asset with the given name across owners
func (r *Repository) FindAssetByName(ctx context.Context, name string) (*models.Asset, error) {
	query := `
		SELECT id, name, uid, email, type, balance, created_at, updated_at
		FROM asset.assets
		WHERE name = $1
		ORDER BY id
		LIMIT 1`
	return r.scanAsset(r.conn(ctx).QueryRowContext(ctx, query, name))
}

// FindAssetsByUID lists the assets of an owner, optionally narrowed to an email
func (r *Repository) FindAssetsByUID(ctx context.Context, uid, email string) ([]*models.Asset, error) {
	query := `
		SELECT id, name, uid, email, type, balance, created_at, updated_at
		FROM asset.assets
		WHERE uid = $1 AND ($2 = '' OR email = $2)
		ORDER BY name`
	rows, err := r.conn(ctx).QueryContext(ctx, query, uid, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		asset := &models.Asset{}
		if err := rows.Scan(&asset.ID, &asset.Name, &asset.UID, &asset.Email, &asset.Type,
			&asset.Balance, &asset.CreatedAt, &asset.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// UpdateAssetBalance persists the balance of an existing asset
func (r *Repository) UpdateAssetBalance(ctx context.Context, asset *models.Asset) error {
	query := `
		UPDATE asset.assets
		SET balance = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING updated_at`
	err := r.conn(ctx).QueryRowContext(ctx, query, asset.Balance, asset.ID).Scan(&asset.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", asset.Name, err)
	}
	return nil
}

// DeleteAsset removes an asset owned by uid
func (r *Repository) DeleteAsset(ctx context.Context, name, uid string) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM asset.assets WHERE name = $1 AND uid = $2`, name, uid)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SnapshotBalances copies every current balance into the history table for date
func (r *Repository) SnapshotBalances(ctx context.Context, date time.Time) (int64, error) {
	query := `
		INSERT INTO asset.asset_history (name, uid, type, balance, date)
		SELECT name, uid, type, balance, $1 FROM asset.assets
		ON CONFLICT (name, uid, date) DO UPDATE SET balance = EXCLUDED.balance`
	res, err := r.conn(ctx).ExecContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot balances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot balances: %w", err)
	}
	return n, nil
}

// FindAssetHistory lists the dated balances of one asset, newest first
func (r *Repository) FindAssetHistory(ctx context.Context, name, uid string) ([]*models.AssetHistory, error) {
	query := `
		SELECT name, uid, type, balance, date
		FROM asset.asset_history
		WHERE name = $1 AND uid = $2
		ORDER BY date DESC`
	rows, err := r.conn(ctx).QueryContext(ctx, query, name, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to find asset history: %w", err)
	}
	defer rows.Close()

	var history []*models.AssetHistory
	for rows.Next() {
		h := &models.AssetHistory{}
		if err := rows.Scan(&h.Name, &h.UID, &h.Type, &h.Balance, &h.Date); err != nil {
			return nil, fmt.Errorf("failed to scan asset history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find asset history: %w", err)
	}
	return history, nil
}

// IsTransferProcessed reports whether a transfer id was already applied
func (r *Repository) IsTransferProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM asset.processed_transfers WHERE transfer_id = $1)`
	if err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transfer %s: %w", id, err)
	}
	return exists, nil
}

// MarkTransferProcessed records a transfer id as applied
func (r *Repository) MarkTransferProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		INSERT INTO asset.processed_transfers (transfer_id, processed_at)
		VALUES ($1, CURRENT_TIMESTAMP)
		ON CONFLICT (transfer_id) DO NOTHING`
	if _, err := r.conn(ctx).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark transfer %s: %w", id, err)
	}
	return nil
}

func (r *Repository) scanAsset(row *sql.Row) (*models.Asset, error) {
	asset := &models.Asset{}
	err := row.Scan(&asset.ID, &asset.Name, &asset.UID, &asset.Email, &asset.Type,
		&asset.Balance, &asset.CreatedAt, &asset.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return asset, nil
}
