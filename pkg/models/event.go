package models

import "time"

// Event is a show listing. (ArtistID, VenueID, StartsAt) is the natural key:
// re-ingesting the same show updates the row instead of duplicating it.
// Events that disappear upstream are kept (stale-but-present by design).
type Event struct {
	ID         string     `json:"id"`
	ArtistID   string     `json:"artist_id"`
	VenueID    string     `json:"venue_id"`
	Name       string     `json:"name"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	TicketURL  string     `json:"ticket_url,omitempty"`
	Source     string     `json:"source"`
	ExternalID string     `json:"external_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EventWithVenue is the read-path shape for discovery screens, populated
// via a JOIN on venues.
type EventWithVenue struct {
	Event
	ArtistName   string `json:"artist_name"`
	VenueName    string `json:"venue_name"`
	VenueCity    string `json:"venue_city"`
	VenueRegion  string `json:"venue_region,omitempty"`
	VenueCountry string `json:"venue_country"`
}
