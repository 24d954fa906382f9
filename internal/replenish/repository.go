package replenish

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads low stock rows straight from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LowStock returns all products at or below their reorder threshold, most
// depleted first.
func (r *Repository) LowStock(ctx context.Context) ([]Suggestion, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, se.quantity, se.reorder_threshold,
       s.id, s.name, s.contact, s.lead_time_days
FROM stock_entries se
JOIN products p ON p.id = se.product_id
JOIN suppliers s ON s.id = se.supplier_id
WHERE se.quantity <= se.reorder_threshold
ORDER BY se.quantity ASC, p.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.CurrentQty, &s.ReorderThreshold,
			&s.SupplierID, &s.SupplierName, &s.SupplierContact, &s.LeadTimeDays); err != nil {
			return nil, err
		}
		s.SuggestedQty = suggestedQty(s.ReorderThreshold, s.CurrentQty)
		result = append(result, s)
	}
	return result, rows.Err()
}
