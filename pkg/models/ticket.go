package models

import "time"

// Ticket is a wallet entry owned by a user for one event.
type Ticket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Barcode   string    `json:"barcode"`
	Status    string    `json:"status"` // upcoming | used | transferred
	Price     *float64  `json:"price,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
