package products

// CreateProductRequest creates a product and, optionally, its initial stock
// entry. When InitialStock is omitted the product is created without stock and
// orders against it fail until an entry exists.
type CreateProductRequest struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Price        float64             `json:"price" validate:"gte=0"`
	InitialStock *InitialStockRequest `json:"initial_stock,omitempty" validate:"omitempty"`
}

// InitialStockRequest describes the stock entry created alongside a product.
type InitialStockRequest struct {
	Quantity         int   `json:"quantity" validate:"gte=0"`
	ReorderThreshold int   `json:"reorder_threshold" validate:"gte=0"`
	SupplierID       int64 `json:"supplier_id" validate:"required,gt=0"`
}

// UpdateProductRequest updates mutable product fields.
type UpdateProductRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
}
