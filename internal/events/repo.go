package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gighub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	ArtistID string
	City     string
	Country  string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const eventColumns = `
	e.id, e.artist_id, e.venue_id, e.name, e.starts_at, e.ends_at,
	e.ticket_url, e.source, e.external_id, e.created_at, e.updated_at,
	a.name, v.name, v.city, v.region, v.country`

const eventJoins = `
	FROM events e
	JOIN artists a ON a.id = e.artist_id
	JOIN venues v ON v.id = e.venue_id`

func (r *Repo) GetByID(ctx context.Context, id string) (*models.EventWithVenue, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+eventJoins+` WHERE e.id = ?`, id)

	e, err := scanEventWithVenue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.EventWithVenue, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]models.EventWithVenue, 0, q.Limit)
	for rows.Next() {
		e, err := scanEventWithVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// UpcomingByArtist is the read-back path discovery screens use after
// triggering a sync.
func (r *Repo) UpcomingByArtist(ctx context.Context, artistID string, limit int) ([]models.EventWithVenue, error) {
	now := time.Now().UTC()
	return r.List(ctx, ListQuery{ArtistID: artistID, From: &now, Limit: limit})
}

// buildListSQL builds either COUNT(*) or SELECT list, always ordered
// chronologically.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + eventColumns + eventJoins
	if countOnly {
		baseSelect = `SELECT COUNT(*)` + eventJoins
	}

	var where []string
	var args []any

	if q.ArtistID != "" {
		where = append(where, "e.artist_id = ?")
		args = append(args, q.ArtistID)
	}
	if strings.TrimSpace(q.City) != "" {
		where = append(where, "LOWER(v.city) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(q.City)))
	}
	if strings.TrimSpace(q.Country) != "" {
		where = append(where, "v.country = ?")
		args = append(args, strings.TrimSpace(q.Country))
	}
	if q.From != nil {
		where = append(where, "e.starts_at >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		where = append(where, "e.starts_at < ?")
		args = append(args, q.To.UTC())
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY e.starts_at ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventWithVenue(row rowScanner) (*models.EventWithVenue, error) {
	var (
		e          models.EventWithVenue
		endsAt     sql.NullTime
		ticketURL  sql.NullString
		externalID sql.NullString
		region     sql.NullString
	)
	if err := row.Scan(
		&e.ID, &e.ArtistID, &e.VenueID, &e.Name, &e.StartsAt, &endsAt,
		&ticketURL, &e.Source, &externalID, &e.CreatedAt, &e.UpdatedAt,
		&e.ArtistName, &e.VenueName, &e.VenueCity, &region, &e.VenueCountry,
	); err != nil {
		return nil, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		e.EndsAt = &t
	}
	e.TicketURL = ticketURL.String
	e.ExternalID = externalID.String
	e.VenueRegion = region.String
	return &e, nil
}
