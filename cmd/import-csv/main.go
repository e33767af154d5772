package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gighub/pkg/database"
)

func main() {
	var (
		artistsIn = flag.String("artists", "data/artists.csv", "input CSV path for artists")
		venuesIn  = flag.String("venues", "data/venues.csv", "input CSV path for venues")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := importArtists(ctx, db, *artistsIn); err != nil {
		log.Fatalf("import artists failed: %v", err)
	}
	if err := importVenues(ctx, db, *venuesIn); err != nil {
		log.Fatalf("import venues failed: %v", err)
	}

	log.Printf("imported artists from %s and venues from %s", *artistsIn, *venuesIn)
}

func importArtists(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO artists (id, name, external_id, genres, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			external_id = COALESCE(excluded.external_id, artists.external_id),
			genres = COALESCE(excluded.genres, artists.genres),
			image_url = COALESCE(excluded.image_url, artists.image_url),
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		name := valueAt(header, row, "name")
		if name == "" {
			continue
		}

		if _, err := stmt.ExecContext(
			ctx,
			uuid.NewString(),
			name,
			nullString(valueAt(header, row, "external_id")),
			nullString(valueAt(header, row, "genres")),
			nullString(valueAt(header, row, "image_url")),
		); err != nil {
			return err
		}
	}

	return nil
}

func importVenues(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO venues (id, name, city, region, country, latitude, longitude, capacity, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name, city, country) DO UPDATE SET
			region = COALESCE(excluded.region, venues.region),
			latitude = COALESCE(excluded.latitude, venues.latitude),
			longitude = COALESCE(excluded.longitude, venues.longitude),
			capacity = COALESCE(excluded.capacity, venues.capacity),
			image_url = COALESCE(excluded.image_url, venues.image_url),
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		name := valueAt(header, row, "name")
		city := valueAt(header, row, "city")
		country := valueAt(header, row, "country")
		if name == "" || city == "" || country == "" {
			continue
		}

		lat, err := parseNullFloat(valueAt(header, row, "latitude"))
		if err != nil {
			return fmt.Errorf("parse latitude for %s: %w", name, err)
		}
		lng, err := parseNullFloat(valueAt(header, row, "longitude"))
		if err != nil {
			return fmt.Errorf("parse longitude for %s: %w", name, err)
		}
		capacity, err := parseNullInt(valueAt(header, row, "capacity"))
		if err != nil {
			return fmt.Errorf("parse capacity for %s: %w", name, err)
		}

		if _, err := stmt.ExecContext(
			ctx,
			uuid.NewString(),
			name,
			city,
			nullString(valueAt(header, row, "region")),
			country,
			lat,
			lng,
			capacity,
			nullString(valueAt(header, row, "image_url")),
		); err != nil {
			return err
		}
	}

	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNullInt(raw string) (sql.NullInt64, error) {
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func parseNullFloat(raw string) (sql.NullFloat64, error) {
	if raw == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
