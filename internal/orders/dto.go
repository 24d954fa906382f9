package orders

import "time"

type createOrderRequest struct {
	CustomerID int64      `json:"customer_id" validate:"required,gt=0"`
	OrderDate  *time.Time `json:"order_date"`
}

type addLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type pricingRequest struct {
	DiscountPct float64 `json:"discount_pct" validate:"gte=0,lte=100"`
	TaxPct      float64 `json:"tax_pct" validate:"gte=0,lte=100"`
}

type advanceRequest struct {
	Status string `json:"status" validate:"required"`
}
