package suppliers

import (
	"time"
)

// Supplier represents a supplier entity
type Supplier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Contact      string    `json:"contact"`
	LeadTimeDays int       `json:"lead_time_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
