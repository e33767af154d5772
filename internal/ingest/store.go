package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gighub/pkg/models"
)

// Store is the durable repository the upsert engine writes through.
// Every upsert is a single constraint-backed statement, not a
// read-then-write sequence, so concurrent artist pipelines that resolve
// to the same venue cannot race into duplicates.
type Store interface {
	// FindArtistByName matches case-insensitively; (nil, nil) when absent.
	FindArtistByName(ctx context.Context, name string) (*models.Artist, error)
	UpsertArtist(ctx context.Context, a models.Artist) (*models.Artist, error)
	FindVenueByNaturalKey(ctx context.Context, name, city, country string) (*models.Venue, error)
	UpsertVenue(ctx context.Context, v models.Venue) (*models.Venue, error)
	// UpsertEvent is keyed on (artist_id, venue_id, starts_at).
	UpsertEvent(ctx context.Context, e models.Event) (*models.Event, error)
}

// SQLStore implements Store on sqlite. The natural-key UNIQUE constraints
// in docs/schema.sql are the sole dedup mechanism.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) FindArtistByName(ctx context.Context, name string) (*models.Artist, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, external_id, genres, image_url, created_at, updated_at
		FROM artists
		WHERE name = ? COLLATE NOCASE
	`, name)

	a, err := scanArtist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find artist by name: %w", err)
	}
	return a, nil
}

// UpsertArtist creates the artist or backfills its external id / image if
// the existing row is missing them. The stored display name always wins;
// this never renames an artist.
func (s *SQLStore) UpsertArtist(ctx context.Context, a models.Artist) (*models.Artist, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	genresJSON, err := json.Marshal(a.Genres)
	if err != nil {
		return nil, fmt.Errorf("marshal genres: %w", err)
	}
	now := time.Now().UTC()

	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO artists (id, name, external_id, genres, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  external_id = COALESCE(NULLIF(artists.external_id, ''), excluded.external_id),
		  image_url   = COALESCE(NULLIF(artists.image_url, ''), excluded.image_url),
		  updated_at  = excluded.updated_at
		RETURNING id, name, external_id, genres, image_url, created_at, updated_at
	`, a.ID, a.Name, nullableString(a.ExternalID), string(genresJSON), nullableString(a.ImageURL), now, now)

	out, err := scanArtist(row)
	if err != nil {
		return nil, fmt.Errorf("upsert artist %q: %w", a.Name, err)
	}
	return out, nil
}

func (s *SQLStore) FindVenueByNaturalKey(ctx context.Context, name, city, country string) (*models.Venue, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, city, region, country, latitude, longitude, capacity, image_url, created_at, updated_at
		FROM venues
		WHERE name = ? AND city = ? AND country = ?
	`, name, city, country)

	v, err := scanVenue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find venue by natural key: %w", err)
	}
	return v, nil
}

// UpsertVenue refreshes region and coordinates on an existing row; the
// (name, city, country) identity fields are never rewritten. Absent
// coordinates never clobber ones observed earlier.
func (s *SQLStore) UpsertVenue(ctx context.Context, v models.Venue) (*models.Venue, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO venues (id, name, city, region, country, latitude, longitude, capacity, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, city, country) DO UPDATE SET
		  region     = excluded.region,
		  latitude   = COALESCE(excluded.latitude, venues.latitude),
		  longitude  = COALESCE(excluded.longitude, venues.longitude),
		  updated_at = excluded.updated_at
		RETURNING id, name, city, region, country, latitude, longitude, capacity, image_url, created_at, updated_at
	`, v.ID, v.Name, v.City, nullableString(v.Region), v.Country,
		nullableFloat(v.Latitude), nullableFloat(v.Longitude), nullableInt(v.Capacity),
		nullableString(v.ImageURL), now, now)

	out, err := scanVenue(row)
	if err != nil {
		return nil, fmt.Errorf("upsert venue %q/%q/%q: %w", v.Name, v.City, v.Country, err)
	}
	return out, nil
}

// UpsertEvent overwrites the mutable fields (name, ticket url, source,
// external id) on conflict; id and foreign keys stay untouched.
func (s *SQLStore) UpsertEvent(ctx context.Context, e models.Event) (*models.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	var endsAt any
	if e.EndsAt != nil {
		endsAt = e.EndsAt.UTC()
	}

	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO events (id, artist_id, venue_id, name, starts_at, ends_at, ticket_url, source, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artist_id, venue_id, starts_at) DO UPDATE SET
		  name        = excluded.name,
		  ticket_url  = excluded.ticket_url,
		  source      = excluded.source,
		  external_id = excluded.external_id,
		  updated_at  = excluded.updated_at
		RETURNING id, artist_id, venue_id, name, starts_at, ends_at, ticket_url, source, external_id, created_at, updated_at
	`, e.ID, e.ArtistID, e.VenueID, e.Name, e.StartsAt.UTC(), endsAt,
		nullableString(e.TicketURL), e.Source, nullableString(e.ExternalID), now, now)

	out, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("upsert event %q: %w", e.Name, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(row rowScanner) (*models.Artist, error) {
	var (
		a          models.Artist
		externalID sql.NullString
		genresJSON sql.NullString
		imageURL   sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Name, &externalID, &genresJSON, &imageURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ExternalID = externalID.String
	a.ImageURL = imageURL.String
	if genresJSON.Valid && genresJSON.String != "" {
		_ = json.Unmarshal([]byte(genresJSON.String), &a.Genres)
	}
	return &a, nil
}

func scanVenue(row rowScanner) (*models.Venue, error) {
	var (
		v         models.Venue
		region    sql.NullString
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
		capacity  sql.NullInt64
		imageURL  sql.NullString
	)
	if err := row.Scan(&v.ID, &v.Name, &v.City, &region, &v.Country,
		&latitude, &longitude, &capacity, &imageURL, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Region = region.String
	v.ImageURL = imageURL.String
	if latitude.Valid {
		f := latitude.Float64
		v.Latitude = &f
	}
	if longitude.Valid {
		f := longitude.Float64
		v.Longitude = &f
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		v.Capacity = &n
	}
	return &v, nil
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e          models.Event
		endsAt     sql.NullTime
		ticketURL  sql.NullString
		externalID sql.NullString
	)
	if err := row.Scan(&e.ID, &e.ArtistID, &e.VenueID, &e.Name, &e.StartsAt,
		&endsAt, &ticketURL, &e.Source, &externalID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		e.EndsAt = &t
	}
	e.TicketURL = ticketURL.String
	e.ExternalID = externalID.String
	return &e, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
