package follows

import (
	"context"
	"database/sql"
	"os"
	"testing"

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

func seedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, 'x')
	`, id, "user-"+id, id+"@example.com")
	require.NoError(t, err)
}

func TestUpsertReplacesStatus(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u1")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Beach House", Status: "following"}))
	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Beach House", Status: "muted"}))

	got, err := repo.Get(ctx, "u1", "Beach House")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "muted", got.Status)

	items, total, err := repo.ListByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u1")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Big Thief", Status: "following"}))

	removed, err := repo.Delete(ctx, "u1", "Big Thief")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, "u1", "Big Thief")
	require.NoError(t, err)
	assert.False(t, removed, "second delete finds nothing")

	got, err := repo.Get(ctx, "u1", "Big Thief")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArtistNamesForUserSkipsMuted(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u1")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Beach House", Status: "following"}))
	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Big Thief", Status: "muted"}))
	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Alvvays", Status: "following"}))

	names, err := repo.ArtistNamesForUser(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Beach House", "Alvvays"}, names)
}

func TestAllFollowedArtistNamesDeduplicatesAcrossUsers(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u1", ArtistName: "Beach House", Status: "following"}))
	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u2", ArtistName: "Beach House", Status: "following"}))
	require.NoError(t, repo.Upsert(ctx, models.Follow{UserID: "u2", ArtistName: "Alvvays", Status: "following"}))

	names, err := repo.AllFollowedArtistNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Beach House", "Alvvays"}, names)
}
