// Package invoice computes invoice totals from order ledger state. It is a
// pure calculation layer: no storage, no side effects, safe to invoke
// repeatedly. Presentation consumes its output and never re-derives totals.
package invoice

import (
	"fmt"
	"math"
	"time"
)

// Input is the order snapshot an invoice is computed from. The caller maps
// its ledger types onto this; the calculator has no other dependencies.
type Input struct {
	OrderID     int64
	OrderDate   time.Time
	Status      string
	DiscountPct float64
	TaxPct      float64
	Lines       []LineInput
}

// LineInput is one order position to price.
type LineInput struct {
	LineID    int64
	ProductID int64
	Quantity  int
}

// ProductInfo carries the catalog data needed to price a line.
type ProductInfo struct {
	Name  string
	Price float64
}

// Line is the per-position breakdown of an invoice.
type Line struct {
	LineID      int64   `json:"line_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Invoice aggregates line subtotals, discount, and tax. Amounts keep full
// float64 precision; rounding happens only at display time via Rounded.
type Invoice struct {
	OrderID        int64     `json:"order_id"`
	OrderDate      time.Time `json:"order_date"`
	Status         string    `json:"status"`
	Lines          []Line    `json:"lines"`
	Subtotal       float64   `json:"subtotal"`
	DiscountPct    float64   `json:"discount_pct"`
	DiscountAmount float64   `json:"discount_amount"`
	Net            float64   `json:"net"`
	TaxPct         float64   `json:"tax_pct"`
	TaxAmount      float64   `json:"tax_amount"`
	Total          float64   `json:"total"`
}

// Compute derives the invoice for an order. Every line's product must be
// present in products; a missing product is a programming error on the
// caller's side, not a business condition.
func Compute(in Input, products map[int64]ProductInfo) (Invoice, error) {
	inv := Invoice{
		OrderID:     in.OrderID,
		OrderDate:   in.OrderDate,
		Status:      in.Status,
		DiscountPct: in.DiscountPct,
		TaxPct:      in.TaxPct,
	}

	for _, line := range in.Lines {
		info, ok := products[line.ProductID]
		if !ok {
			return Invoice{}, fmt.Errorf("invoice: no price for product %d", line.ProductID)
		}
		subtotal := float64(line.Quantity) * info.Price
		inv.Lines = append(inv.Lines, Line{
			LineID:      line.LineID,
			ProductID:   line.ProductID,
			ProductName: info.Name,
			Quantity:    line.Quantity,
			UnitPrice:   info.Price,
			Subtotal:    subtotal,
		})
		inv.Subtotal += subtotal
	}

	inv.DiscountAmount = inv.Subtotal * in.DiscountPct / 100
	inv.Net = inv.Subtotal - inv.DiscountAmount
	inv.TaxAmount = inv.Net * in.TaxPct / 100
	inv.Total = inv.Net + inv.TaxAmount
	return inv, nil
}

// Rounded returns a copy with all monetary amounts rounded to two decimals
// for display.
func (inv Invoice) Rounded() Invoice {
	out := inv
	out.Lines = make([]Line, len(inv.Lines))
	for i, l := range inv.Lines {
		l.UnitPrice = Round2(l.UnitPrice)
		l.Subtotal = Round2(l.Subtotal)
		out.Lines[i] = l
	}
	out.Subtotal = Round2(inv.Subtotal)
	out.DiscountAmount = Round2(inv.DiscountAmount)
	out.Net = Round2(inv.Net)
	out.TaxAmount = Round2(inv.TaxAmount)
	out.Total = Round2(inv.Total)
	return out
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
