package models

import "time"

// Follow marks an artist name a user wants tracked. The name is stored
// case-preserved; downstream artist resolution is case-insensitive.
type Follow struct {
	UserID     string    `json:"user_id"`
	ArtistName string    `json:"artist_name"`
	Status     string    `json:"status"` // following | muted
	UpdatedAt  time.Time `json:"updated_at"`
}
