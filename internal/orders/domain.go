package orders

import (
	"errors"
	"fmt"
	"time"
)

// Status is the order fulfillment lifecycle state.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// DefaultTaxPct is applied to new orders until changed.
const DefaultTaxPct = 19.0

var statusRank = map[Status]int{
	StatusOpen:      0,
	StatusShipped:   1,
	StatusDelivered: 2,
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether target is the strict successor of s. Transitions
// are forward-only and may not skip states.
func (s Status) CanAdvanceTo(target Status) bool {
	return statusRank[target] == statusRank[s]+1
}

// Order models one customer order.
type Order struct {
	ID          int64       `json:"id"`
	CustomerID  int64       `json:"customer_id"`
	OrderDate   time.Time   `json:"order_date"`
	Status      Status      `json:"status"`
	DiscountPct float64     `json:"discount_pct"`
	TaxPct      float64     `json:"tax_pct"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Lines       []OrderLine `json:"lines,omitempty"`
}

// OrderLine models one product position. A live line implies a stock
// reservation of equal quantity against its product.
type OrderLine struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrOrderNotFound indicates an unknown order ID.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrLineNotFound indicates an unknown order line ID.
	ErrLineNotFound = errors.New("orders: order line not found")
	// ErrCustomerNotFound indicates the order's customer does not resolve.
	ErrCustomerNotFound = errors.New("orders: customer not found")
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = errors.New("orders: quantity must be positive")
	// ErrPercentOutOfRange indicates a discount or tax rate outside [0,100].
	ErrPercentOutOfRange = errors.New("orders: percentage must be between 0 and 100")
	// ErrUnknownStatus indicates a status value outside the lifecycle enum.
	ErrUnknownStatus = errors.New("orders: unknown status")
)

// InvalidTransitionError reports an illegal lifecycle transition. Backward
// moves and skipped states are both rejected.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("orders: invalid status transition %s -> %s", e.From, e.To)
}

// AdvanceResult reports the outcome of a status advance. NoOp is set when the
// order was already at the requested status.
type AdvanceResult struct {
	Status Status `json:"status"`
	NoOp   bool   `json:"no_op"`
}
