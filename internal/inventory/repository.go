package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/platform/db"
)

// StockOps exposes the ledger's stock mutations scoped to one transaction.
// Every mutation is atomic: Reserve is a single guarded decrement, so no
// observer can see a checked-but-not-yet-decremented state.
type StockOps interface {
	Reserve(ctx context.Context, productID int64, qty int) error
	Release(ctx context.Context, productID int64, qty int) error
	AdjustDelta(ctx context.Context, productID int64, delta int) error
	SetAbsolute(ctx context.Context, productID int64, newQty int) error
	CreateEntry(ctx context.Context, entry StockEntry) (int64, error)
	GetEntry(ctx context.Context, productID int64) (StockEntry, error)
}

// Repository persists stock entries in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	policy db.RetryPolicy
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, policy db.RetryPolicy) *Repository {
	return &Repository{pool: pool, policy: policy}
}

// WithStock executes the callback inside a serializable transaction with
// bounded contention retries.
func (r *Repository) WithStock(ctx context.Context, fn func(context.Context, StockOps) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTxRetry(ctx, r.pool, r.policy, func(tx pgx.Tx) error {
		return fn(ctx, NewStockOps(tx))
	})
}

// GetEntry reads a stock entry outside any transaction.
func (r *Repository) GetEntry(ctx context.Context, productID int64) (StockEntry, error) {
	return scanEntry(r.pool.QueryRow(ctx, `SELECT id, product_id, quantity, reorder_threshold, supplier_id, adjusted_at, updated_at
FROM stock_entries WHERE product_id = $1`, productID))
}

// ListEntries returns all stock entries ordered by product.
func (r *Repository) ListEntries(ctx context.Context) ([]StockEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, quantity, reorder_threshold, supplier_id, adjusted_at, updated_at
FROM stock_entries ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StockEntry
	for rows.Next() {
		var e StockEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Quantity, &e.ReorderThreshold, &e.SupplierID, &e.AdjustedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type txStock struct {
	tx pgx.Tx
}

// NewStockOps wraps an open transaction with the ledger's stock operations.
// Used by the order ledger so a line mutation and its stock adjustment commit
// together.
func NewStockOps(tx pgx.Tx) StockOps {
	return &txStock{tx: tx}
}

func (s *txStock) Reserve(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tag, err := s.tx.Exec(ctx, `UPDATE stock_entries SET quantity = quantity - $2, updated_at = NOW()
WHERE product_id = $1 AND quantity >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// The guarded update matched nothing: either no entry or not enough stock.
	var available int
	err = s.tx.QueryRow(ctx, `SELECT quantity FROM stock_entries WHERE product_id = $1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStockNotFound
	}
	if err != nil {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

func (s *txStock) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tag, err := s.tx.Exec(ctx, `UPDATE stock_entries SET quantity = quantity + $2, updated_at = NOW()
WHERE product_id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

// AdjustDelta applies a line-quantity change: positive delta reserves more
// stock, negative delta releases the difference.
func (s *txStock) AdjustDelta(ctx context.Context, productID int64, delta int) error {
	switch {
	case delta > 0:
		return s.Reserve(ctx, productID, delta)
	case delta < 0:
		return s.Release(ctx, productID, -delta)
	default:
		return nil
	}
}

// SetAbsolute overwrites quantity unconditionally (physical inventory count).
// Bypasses reservation logic; adjusted_at records the correction.
func (s *txStock) SetAbsolute(ctx context.Context, productID int64, newQty int) error {
	if newQty < 0 {
		return ErrInvalidQuantity
	}
	tag, err := s.tx.Exec(ctx, `UPDATE stock_entries SET quantity = $2, adjusted_at = NOW(), updated_at = NOW()
WHERE product_id = $1`, productID, newQty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

func (s *txStock) CreateEntry(ctx context.Context, entry StockEntry) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO stock_entries (product_id, quantity, reorder_threshold, supplier_id, updated_at)
VALUES ($1, $2, $3, $4, NOW()) RETURNING id`,
		entry.ProductID, entry.Quantity, entry.ReorderThreshold, entry.SupplierID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrEntryExists
		}
		return 0, err
	}
	return id, nil
}

func (s *txStock) GetEntry(ctx context.Context, productID int64) (StockEntry, error) {
	return scanEntry(s.tx.QueryRow(ctx, `SELECT id, product_id, quantity, reorder_threshold, supplier_id, adjusted_at, updated_at
FROM stock_entries WHERE product_id = $1`, productID))
}

func scanEntry(row pgx.Row) (StockEntry, error) {
	var e StockEntry
	err := row.Scan(&e.ID, &e.ProductID, &e.Quantity, &e.ReorderThreshold, &e.SupplierID, &e.AdjustedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockEntry{}, ErrStockNotFound
	}
	return e, err
}
