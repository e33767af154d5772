package follows

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gighub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert inserts or updates a user's follow entry.
func (r *Repo) Upsert(ctx context.Context, f models.Follow) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO follows (user_id, artist_name, status, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, artist_name) DO UPDATE SET
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, f.UserID, f.ArtistName, f.Status)
	if err != nil {
		return fmt.Errorf("upsert follow: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, artistName string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM follows
		WHERE user_id = ? AND artist_name = ?
	`, userID, artistName)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Get(ctx context.Context, userID, artistName string) (*models.Follow, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, artist_name, status, updated_at
		FROM follows
		WHERE user_id = ? AND artist_name = ?
	`, userID, artistName)

	var f models.Follow
	var updated time.Time
	if err := row.Scan(&f.UserID, &f.ArtistName, &f.Status, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get follow: %w", err)
	}
	f.UpdatedAt = updated
	return &f, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Follow, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM follows WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, artist_name, status, updated_at
		FROM follows
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	out := make([]models.Follow, 0, limit)
	for rows.Next() {
		var f models.Follow
		var updated time.Time
		if err := rows.Scan(&f.UserID, &f.ArtistName, &f.Status, &updated); err != nil {
			return nil, 0, fmt.Errorf("scan follow row: %w", err)
		}
		f.UpdatedAt = updated
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// ArtistNamesForUser returns the names a user actively follows, in
// follow order. These feed the user's follow-list sync.
func (r *Repo) ArtistNamesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT artist_name FROM follows
		WHERE user_id = ? AND status = 'following'
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("follow names for user: %w", err)
	}
	defer rows.Close()
	return collectNames(rows)
}

// AllFollowedArtistNames returns every distinct actively-followed name
// across all users; the background ingestion daemon feeds these to the
// batch pipeline.
func (r *Repo) AllFollowedArtistNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT artist_name FROM follows
		WHERE status = 'following'
		ORDER BY artist_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("all followed names: %w", err)
	}
	defer rows.Close()
	return collectNames(rows)
}

func collectNames(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
