package products

import (
	"time"
)

// Product represents a catalog product. Read-mostly; price corrections are an
// external concern.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	PriceRaw  *string   `json:"price_raw,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductWithStock joins a product with its current on-hand quantity for
// catalog listings. Quantity is zero when no stock entry exists.
type ProductWithStock struct {
	Product
	Quantity int `json:"quantity"`
}
