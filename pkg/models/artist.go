package models

import "time"

// Artist is a canonical performer row. At most one artist exists per
// case-insensitive name; the row is created on first encounter during
// ingestion and never deleted by it.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ExternalID string    `json:"external_id,omitempty"`
	Genres     []string  `json:"genres,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
