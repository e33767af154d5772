package reviews

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

func seedUserAndEvent(t *testing.T, db *sql.DB, userID, eventID string) {
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
		INSERT INTO venues (id, name, city, country) VALUES (?, ?, 'Lisbon', 'PT')
	`, venueID, "venue-"+eventID)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO events (id, artist_id, venue_id, name, starts_at, source)
		VALUES (?, ?, ?, 'show', ?, 'bandsintown')
	`, eventID, artistID, venueID, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
}

func TestUpsertReplacesOwnReview(t *testing.T) {
	db := openTestDB(t)
	seedUserAndEvent(t, db, "u1", "e1")
	repo := NewRepo(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "u1", "e1", 3, "decent")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.Upsert(ctx, "u1", "e1", 5, "grew on me")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "re-reviewing replaces, not duplicates")
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, "grew on me", second.Body)

	items, err := repo.ListByEvent(ctx, "e1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAverageForEvent(t *testing.T) {
	db := openTestDB(t)
	seedUserAndEvent(t, db, "u1", "e1")
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash) VALUES ('u2', 'user-u2', 'u2@example.com', 'x')
	`)
	require.NoError(t, err)
	repo := NewRepo(db)
	ctx := context.Background()

	avg, count, err := repo.AverageForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)

	_, err = repo.Upsert(ctx, "u1", "e1", 4, "")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "u2", "e1", 2, "")
	require.NoError(t, err)

	avg, count, err = repo.AverageForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 3.0, avg, 0.001)
}

func TestDeleteOnlyOwnReview(t *testing.T) {
	db := openTestDB(t)
	seedUserAndEvent(t, db, "u1", "e1")
	repo := NewRepo(db)
	ctx := context.Background()

	review, err := repo.Upsert(ctx, "u1", "e1", 4, "")
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, review.ID, "someone-else")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, review.ID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	gone, err := repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
