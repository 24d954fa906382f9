package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, id int64, customer Customer) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	filters = filters.Normalize()

	query := `SELECT id, name, address, created_at, updated_at FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND name ILIKE $` + strconv.Itoa(len(args))
		countArgs = append(countArgs, "%"+filters.Search+"%")
		countQuery += ` AND name ILIKE $` + strconv.Itoa(len(countArgs))
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == shared.SortDesc {
		dir = "DESC"
	}
	query += " ORDER BY name " + dir

	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM customers WHERE id = $1`
	var c Customer
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	query := `INSERT INTO customers (name, address, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, customer.Name, customer.Address, now, now).Scan(&customer.ID)
	if err != nil {
		return Customer{}, err
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer, nil
}

func (r *repository) Update(ctx context.Context, id int64, customer Customer) error {
	query := `UPDATE customers SET name = $1, address = $2, updated_at = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, customer.Name, customer.Address, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
