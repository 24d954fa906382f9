package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/inventory"
	"github.com/orderdesk/orderdesk/internal/platform/db"
)

// Repository persists orders and their lines in PostgreSQL.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
}

// TxRepository exposes transactional operations used by the service. Stock()
// taps the inventory ledger inside the same transaction, so a line mutation
// and its compensating stock adjustment commit or roll back as one unit.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	GetLineForUpdate(ctx context.Context, lineID int64) (OrderLine, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteLine(ctx context.Context, lineID int64) error
	UpdateDiscountTax(ctx context.Context, orderID int64, discountPct, taxPct float64) error
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
	Stock() inventory.StockOps
}

type repository struct {
	pool   *pgxpool.Pool
	policy db.RetryPolicy
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, policy db.RetryPolicy) Repository {
	return &repository{pool: pool, policy: policy}
}

// WithTx executes the callback inside a serializable transaction with bounded
// contention retries.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxRetry(ctx, r.pool, r.policy, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `SELECT id, customer_id, order_date, status, discount_pct, tax_pct, created_at, updated_at
FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Status, &o.DiscountPct, &o.TaxPct, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity, created_at, updated_at
FROM order_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, order_date, status, discount_pct, tax_pct, created_at, updated_at
FROM orders WHERE customer_id = $1 ORDER BY order_date DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Status, &o.DiscountPct, &o.TaxPct, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) Stock() inventory.StockOps {
	return inventory.NewStockOps(t.tx)
}

func (t *txRepository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO orders (customer_id, order_date, status, discount_pct, tax_pct, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		order.CustomerID, order.OrderDate, string(order.Status), order.DiscountPct, order.TaxPct).Scan(&id)
	return id, err
}

func (t *txRepository) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := t.tx.QueryRow(ctx, `SELECT id, customer_id, order_date, status, discount_pct, tax_pct, created_at, updated_at
FROM orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Status, &o.DiscountPct, &o.TaxPct, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

func (t *txRepository) GetLineForUpdate(ctx context.Context, lineID int64) (OrderLine, error) {
	var l OrderLine
	err := t.tx.QueryRow(ctx, `SELECT id, order_id, product_id, quantity, created_at, updated_at
FROM order_lines WHERE id = $1 FOR UPDATE`, lineID).
		Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderLine{}, ErrLineNotFound
	}
	return l, err
}

func (t *txRepository) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO order_lines (order_id, product_id, quantity, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`,
		line.OrderID, line.ProductID, line.Quantity).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE order_lines SET quantity = $2, updated_at = $3 WHERE id = $1`,
		lineID, quantity, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (t *txRepository) DeleteLine(ctx context.Context, lineID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (t *txRepository) UpdateDiscountTax(ctx context.Context, orderID int64, discountPct, taxPct float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET discount_pct = $2, tax_pct = $3, updated_at = $4 WHERE id = $1`,
		orderID, discountPct, taxPct, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *txRepository) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		orderID, string(status), time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
