package wallet

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
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

// seedEvent creates the user, artist, venue and event rows a ticket needs.
func seedEvent(t *testing.T, db *sql.DB, userID, eventID string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, 'x')
		ON CONFLICT(id) DO NOTHING
	`, userID, "user-"+userID, userID+"@example.com")
	require.NoError(t, err)

	artistID := uuid.NewString()
	_, err = db.Exec(`INSERT INTO artists (id, name) VALUES (?, ?)`, artistID, "artist-"+eventID)
	require.NoError(t, err)

	venueID := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO venues (id, name, city, country) VALUES (?, ?, 'Berlin', 'DE')
	`, venueID, "venue-"+eventID)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO events (id, artist_id, venue_id, name, starts_at, source)
		VALUES (?, ?, ?, 'show', ?, 'bandsintown')
	`, eventID, artistID, venueID, time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, err)
}

func TestUpsertKeepsIdentityAcrossUpdates(t *testing.T) {
	db := openTestDB(t)
	seedEvent(t, db, "u1", "e1")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Ticket{UserID: "u1", EventID: "e1", Status: "upcoming"}))

	first, err := repo.Get(ctx, "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.NotEmpty(t, first.Barcode)

	price := 42.50
	require.NoError(t, repo.Upsert(ctx, models.Ticket{
		UserID: "u1", EventID: "e1", Status: "used", Price: &price, Notes: "great show",
	}))

	second, err := repo.Get(ctx, "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "ticket id survives updates")
	assert.Equal(t, first.Barcode, second.Barcode, "barcode survives updates")
	assert.Equal(t, "used", second.Status)
	require.NotNil(t, second.Price)
	assert.Equal(t, 42.50, *second.Price)
	assert.Equal(t, "great show", second.Notes)
}

func TestListFiltersByStatus(t *testing.T) {
	db := openTestDB(t)
	seedEvent(t, db, "u1", "e1")
	seedEvent(t, db, "u1", "e2")
	seedEvent(t, db, "u1", "e3")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Ticket{UserID: "u1", EventID: "e1", Status: "upcoming"}))
	require.NoError(t, repo.Upsert(ctx, models.Ticket{UserID: "u1", EventID: "e2", Status: "used"}))
	require.NoError(t, repo.Upsert(ctx, models.Ticket{UserID: "u1", EventID: "e3", Status: "upcoming"}))

	all, total, err := repo.List(ctx, "u1", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	upcoming, total, err := repo.List(ctx, "u1", "upcoming", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, upcoming, 2)
	for _, tk := range upcoming {
		assert.Equal(t, "upcoming", tk.Status)
	}
}

func TestDeleteOnlyOwnTicket(t *testing.T) {
	db := openTestDB(t)
	seedEvent(t, db, "u1", "e1")
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash) VALUES ('u2', 'user-u2', 'u2@example.com', 'x')
	`)
	require.NoError(t, err)
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Ticket{UserID: "u1", EventID: "e1", Status: "upcoming"}))

	removed, err := repo.Delete(ctx, "u2", "e1")
	require.NoError(t, err)
	assert.False(t, removed, "another user cannot delete the ticket")

	removed, err = repo.Delete(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.True(t, removed)
}
