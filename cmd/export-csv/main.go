package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gighub/pkg/database"
)

func main() {
	var (
		eventsOut = flag.String("events", "data/events.csv", "output CSV path for events")
		venuesOut = flag.String("venues", "data/venues.csv", "output CSV path for venues")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportEvents(ctx, db, *eventsOut); err != nil {
		log.Fatalf("export events failed: %v", err)
	}
	if err := exportVenues(ctx, db, *venuesOut); err != nil {
		log.Fatalf("export venues failed: %v", err)
	}

	log.Printf("exported events to %s and venues to %s", *eventsOut, *venuesOut)
}

func exportEvents(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "artist", "venue", "city", "country", "starts_at", "ticket_url", "source"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT e.id, a.name, v.name, v.city, v.country, e.starts_at, e.ticket_url, e.source
        FROM events e
        JOIN artists a ON a.id = e.artist_id
        JOIN venues v ON v.id = e.venue_id
        ORDER BY e.starts_at
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        string
			artist    string
			venue     string
			city      string
			country   string
			startsAt  time.Time
			ticketURL sql.NullString
			source    string
		)

		if err := rows.Scan(&id, &artist, &venue, &city, &country, &startsAt, &ticketURL, &source); err != nil {
			return err
		}

		if err := w.Write([]string{
			id,
			artist,
			venue,
			city,
			country,
			startsAt.UTC().Format(time.RFC3339),
			ticketURL.String,
			source,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportVenues(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "city", "region", "country", "latitude", "longitude"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, name, city, region, country, latitude, longitude
        FROM venues
        ORDER BY country, city, name
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			name    string
			city    string
			region  sql.NullString
			country string
			lat     sql.NullFloat64
			lng     sql.NullFloat64
		)

		if err := rows.Scan(&id, &name, &city, &region, &country, &lat, &lng); err != nil {
			return err
		}

		if err := w.Write([]string{
			id,
			name,
			city,
			region.String,
			country,
			formatCoord(lat),
			formatCoord(lng),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func formatCoord(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
