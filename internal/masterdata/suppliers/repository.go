package suppliers

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
	List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	filters = filters.Normalize()

	query := `SELECT id, name, contact, lead_time_days, created_at, updated_at FROM suppliers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM suppliers WHERE 1=1`
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

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Contact, &s.LeadTimeDays, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	query := `SELECT id, name, contact, lead_time_days, created_at, updated_at FROM suppliers WHERE id = $1`
	var s Supplier
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Contact, &s.LeadTimeDays, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	query := `INSERT INTO suppliers (name, contact, lead_time_days, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, supplier.Name, supplier.Contact, supplier.LeadTimeDays, now, now).Scan(&supplier.ID)
	if err != nil {
		return Supplier{}, err
	}
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	return supplier, nil
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	query := `UPDATE suppliers SET name = $1, contact = $2, lead_time_days = $3, updated_at = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, supplier.Name, supplier.Contact, supplier.LeadTimeDays, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
