package reviews

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

// Upsert writes a user's review of an event. One review per (user, event);
// reviewing again replaces the previous rating and body.
func (r *Repo) Upsert(ctx context.Context, userID, eventID string, rating int, body string) (*models.Review, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO reviews (user_id, event_id, rating, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, event_id) DO UPDATE SET
			rating = excluded.rating,
			body = excluded.body,
			created_at = CURRENT_TIMESTAMP
		RETURNING id
	`, userID, eventID, rating, body).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, rating, body, created_at
		FROM reviews
		WHERE id = ?
	`, id)

	var review models.Review
	var body sql.NullString
	var created time.Time
	if err := row.Scan(&review.ID, &review.UserID, &review.EventID, &review.Rating, &body, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	review.Body = body.String
	review.CreatedAt = created
	return &review, nil
}

func (r *Repo) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, event_id, rating, body, created_at
		FROM reviews
		WHERE event_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, eventID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, limit)
	for rows.Next() {
		var review models.Review
		var body sql.NullString
		var created time.Time

		if err := rows.Scan(&review.ID, &review.UserID, &review.EventID, &review.Rating, &body, &created); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}

		review.Body = body.String
		review.CreatedAt = created
		out = append(out, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// AverageForEvent returns the mean rating and review count for an event.
// Zero count means no reviews yet.
func (r *Repo) AverageForEvent(ctx context.Context, eventID string) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.DB.QueryRowContext(ctx, `
		SELECT AVG(rating), COUNT(*) FROM reviews WHERE event_id = ?
	`, eventID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg.Float64, count, nil
}

func (r *Repo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
