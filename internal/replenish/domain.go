// Package replenish surfaces products whose stock has fallen to or below
// their reorder threshold, together with the supplier to reorder from.
package replenish

// Suggestion is one reorder recommendation. SuggestedQty restores stock to
// three times the threshold, a buffer that covers the supplier lead time.
type Suggestion struct {
	ProductID        int64  `json:"product_id"`
	ProductName      string `json:"product_name"`
	CurrentQty       int    `json:"current_qty"`
	ReorderThreshold int    `json:"reorder_threshold"`
	SupplierID       int64  `json:"supplier_id"`
	SupplierName     string `json:"supplier_name"`
	SupplierContact  string `json:"supplier_contact,omitempty"`
	LeadTimeDays     int    `json:"lead_time_days"`
	SuggestedQty     int    `json:"suggested_qty"`
}

// suggestedQty computes the reorder amount for a low stock row. A zero
// threshold with zero stock yields zero; the report still lists the row so
// the operator sees the product is depleted.
func suggestedQty(threshold, current int) int {
	return threshold*3 - current
}
