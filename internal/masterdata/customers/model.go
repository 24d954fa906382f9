package customers

import (
	"time"
)

// Customer represents a customer entity. Referenced by orders, never mutated
// by the order engine itself.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
