package ingest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gighub/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON;`)
	require.NoError(t, err)

	schema, err := os.ReadFile("../../docs/schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func TestSQLStoreArtistCaseInsensitive(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	created, err := store.UpsertArtist(ctx, models.Artist{Name: "Beach House"})
	require.NoError(t, err)

	found, err := store.FindArtistByName(ctx, "beach house")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Beach House", found.Name, "stored case is preserved")

	missing, err := store.FindArtistByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLStoreArtistBackfillExternalID(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	first, err := store.UpsertArtist(ctx, models.Artist{Name: "Beach House"})
	require.NoError(t, err)
	assert.Empty(t, first.ExternalID)

	second, err := store.UpsertArtist(ctx, models.Artist{Name: "beach house", ExternalID: "517"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "case-insensitive conflict keeps one row")
	assert.Equal(t, "517", second.ExternalID)
	assert.Equal(t, "Beach House", second.Name, "name is never overwritten")

	// an already-set external id is not replaced
	third, err := store.UpsertArtist(ctx, models.Artist{Name: "Beach House", ExternalID: "999"})
	require.NoError(t, err)
	assert.Equal(t, "517", third.ExternalID)
}

func TestSQLStoreVenueNaturalKey(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	lat := 39.6654
	v1, err := store.UpsertVenue(ctx, models.Venue{
		Name: "Red Rocks", City: "Morrison", Country: "US", Latitude: &lat,
	})
	require.NoError(t, err)

	// same natural key: row is reused, region refreshed, coords kept
	v2, err := store.UpsertVenue(ctx, models.Venue{
		Name: "Red Rocks", City: "Morrison", Country: "US", Region: "CO",
	})
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v2.ID)
	assert.Equal(t, "CO", v2.Region)
	require.NotNil(t, v2.Latitude)
	assert.InDelta(t, lat, *v2.Latitude, 1e-9)

	// different city: genuinely different venue
	v3, err := store.UpsertVenue(ctx, models.Venue{
		Name: "Red Rocks", City: "Denver", Country: "US",
	})
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID, v3.ID)

	var count int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM venues`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSQLStoreEventUpsert(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	artist, err := store.UpsertArtist(ctx, models.Artist{Name: "Beach House"})
	require.NoError(t, err)
	venue, err := store.UpsertVenue(ctx, models.Venue{Name: "Mohawk", City: "Austin", Country: "US"})
	require.NoError(t, err)

	startsAt := time.Date(2027, 7, 4, 19, 30, 0, 0, time.UTC)
	e1, err := store.UpsertEvent(ctx, models.Event{
		ArtistID: artist.ID, VenueID: venue.ID,
		Name: "Summer Tour", StartsAt: startsAt,
		TicketURL: "https://tix.example/1", Source: "bandsintown", ExternalID: "1032",
	})
	require.NoError(t, err)

	e2, err := store.UpsertEvent(ctx, models.Event{
		ArtistID: artist.ID, VenueID: venue.ID,
		Name: "Summer Tour (Rescheduled)", StartsAt: startsAt,
		TicketURL: "https://tix.example/2", Source: "bandsintown", ExternalID: "1032",
	})
	require.NoError(t, err)

	assert.Equal(t, e1.ID, e2.ID, "same natural key must update, not duplicate")
	assert.Equal(t, "Summer Tour (Rescheduled)", e2.Name)
	assert.Equal(t, "https://tix.example/2", e2.TicketURL)

	var count int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count))
	assert.Equal(t, 1, count)

	// different date at the same venue is a new row
	e3, err := store.UpsertEvent(ctx, models.Event{
		ArtistID: artist.ID, VenueID: venue.ID,
		Name: "Summer Tour", StartsAt: startsAt.AddDate(0, 0, 1), Source: "bandsintown",
	})
	require.NoError(t, err)
	assert.NotEqual(t, e1.ID, e3.ID)
}

func TestSyncerEndToEndOnSQLite(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	source := newFakeSource()
	source.listings["Beach House"] = []RawListing{
		futureListing("1", "Mohawk", 10),
		futureListing("2", "Stubb's", 20),
	}
	s := newTestSyncer(store, source)

	first, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := s.SyncArtist(context.Background(), "Beach House", 0)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)

	var events int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&events))
	assert.Equal(t, 2, events)
}
