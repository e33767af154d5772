package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gighub/pkg/models"
)

// Results is the unified multi-entity search payload.
type Results struct {
	Artists []models.Artist         `json:"artists"`
	Venues  []models.Venue          `json:"venues"`
	Events  []models.EventWithVenue `json:"events"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Search runs a case-insensitive keyword match over artist names, venue
// names/cities, and event names.
func (r *Repo) Search(ctx context.Context, q string, limit int) (*Results, error) {
	kw := strings.TrimSpace(q)
	if kw == "" {
		return &Results{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(kw) + "%"

	out := &Results{}

	if err := r.searchArtists(ctx, pattern, limit, out); err != nil {
		return nil, err
	}
	if err := r.searchVenues(ctx, pattern, limit, out); err != nil {
		return nil, err
	}
	if err := r.searchEvents(ctx, pattern, limit, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) searchArtists(ctx context.Context, pattern string, limit int, out *Results) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, external_id, image_url
		FROM artists
		WHERE LOWER(name) LIKE ?
		ORDER BY name ASC
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return fmt.Errorf("search artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a          models.Artist
			externalID sql.NullString
			imageURL   sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &externalID, &imageURL); err != nil {
			return fmt.Errorf("scan artist: %w", err)
		}
		a.ExternalID = externalID.String
		a.ImageURL = imageURL.String
		out.Artists = append(out.Artists, a)
	}
	return rows.Err()
}

func (r *Repo) searchVenues(ctx context.Context, pattern string, limit int, out *Results) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, city, region, country
		FROM venues
		WHERE LOWER(name) LIKE ? OR LOWER(city) LIKE ?
		ORDER BY name ASC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return fmt.Errorf("search venues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v      models.Venue
			region sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.City, &region, &v.Country); err != nil {
			return fmt.Errorf("scan venue: %w", err)
		}
		v.Region = region.String
		out.Venues = append(out.Venues, v)
	}
	return rows.Err()
}

func (r *Repo) searchEvents(ctx context.Context, pattern string, limit int, out *Results) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.id, e.artist_id, e.venue_id, e.name, e.starts_at, e.source,
		       a.name, v.name, v.city, v.country
		FROM events e
		JOIN artists a ON a.id = e.artist_id
		JOIN venues v ON v.id = e.venue_id
		WHERE LOWER(e.name) LIKE ? OR LOWER(a.name) LIKE ?
		ORDER BY e.starts_at ASC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.EventWithVenue
		if err := rows.Scan(&e.ID, &e.ArtistID, &e.VenueID, &e.Name, &e.StartsAt, &e.Source,
			&e.ArtistName, &e.VenueName, &e.VenueCity, &e.VenueCountry); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		out.Events = append(out.Events, e)
	}
	return rows.Err()
}
