package products

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
	List(ctx context.Context, filters shared.ListFilters) ([]ProductWithStock, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]ProductWithStock, int, error) {
	filters = filters.Normalize()

	query := `SELECT p.id, p.name, p.price, p.price_raw, p.created_at, p.updated_at, COALESCE(s.quantity, 0)
FROM products p
LEFT JOIN stock_entries s ON s.product_id = p.id
WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products p WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND p.name ILIKE $` + strconv.Itoa(len(args))
		countArgs = append(countArgs, "%"+filters.Search+"%")
		countQuery += ` AND p.name ILIKE $` + strconv.Itoa(len(countArgs))
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ProductWithStock
	for rows.Next() {
		var p ProductWithStock
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.PriceRaw, &p.CreatedAt, &p.UpdatedAt, &p.Quantity); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	query := `SELECT id, name, price, price_raw, created_at, updated_at FROM products WHERE id = $1`
	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.PriceRaw, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	query := `INSERT INTO products (name, price, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, product.Name, product.Price, now, now).Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	query := `UPDATE products SET name = $1, price = $2, updated_at = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, product.Name, product.Price, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "price":
		return "p.price " + dir
	case "created_at":
		return "p.created_at " + dir
	default:
		return "p.name " + dir
	}
}
