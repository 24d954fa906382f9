package inventory

import (
	"errors"
	"fmt"
	"time"
)

// StockEntry is the authoritative stock record for one product. Quantity is
// committed-available stock: every live order line has already been subtracted.
type StockEntry struct {
	ID               int64      `json:"id"`
	ProductID        int64      `json:"product_id"`
	Quantity         int        `json:"quantity"`
	ReorderThreshold int        `json:"reorder_threshold"`
	SupplierID       int64      `json:"supplier_id"`
	AdjustedAt       *time.Time `json:"adjusted_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ErrStockNotFound indicates no stock entry exists for the product. Stock must
// be created before orders can be taken against a product.
var ErrStockNotFound = errors.New("inventory: no stock entry for product")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInvalidThreshold indicates a negative reorder threshold.
var ErrInvalidThreshold = errors.New("inventory: reorder threshold must be non-negative")

// ErrEntryExists indicates the product already has a stock entry.
var ErrEntryExists = errors.New("inventory: stock entry already exists")

// InsufficientStockError reports a failed reservation. The reservation was not
// applied; quantity is unchanged.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Shortfall returns how many units were missing.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}
