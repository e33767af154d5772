package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gighub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert inserts or updates a user's ticket for an event. A ticket keeps
// its id and barcode across updates; only the mutable fields move.
func (r *Repo) Upsert(ctx context.Context, t models.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Barcode == "" {
		t.Barcode = uuid.NewString()
	}

	var price any
	if t.Price != nil {
		price = *t.Price
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO tickets (id, user_id, event_id, barcode, status, price, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, event_id) DO UPDATE SET
			status = excluded.status,
			price = excluded.price,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`, t.ID, t.UserID, t.EventID, t.Barcode, t.Status, price, t.Notes)
	if err != nil {
		return fmt.Errorf("upsert ticket: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, eventID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM tickets
		WHERE user_id = ? AND event_id = ?
	`, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("delete ticket: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Get(ctx context.Context, userID, eventID string) (*models.Ticket, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, barcode, status, price, notes, created_at, updated_at
		FROM tickets
		WHERE user_id = ? AND event_id = ?
	`, userID, eventID)

	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context, userID string, status string, limit, offset int) ([]models.Ticket, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	// count
	var total int
	var countErr error
	if status == "" {
		countErr = r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM tickets WHERE user_id = ?
		`, userID).Scan(&total)
	} else {
		countErr = r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM tickets WHERE user_id = ? AND status = ?
		`, userID, status).Scan(&total)
	}
	if countErr != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", countErr)
	}

	// list
	var rows *sql.Rows
	var err error

	if status == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, user_id, event_id, barcode, status, price, notes, created_at, updated_at
			FROM tickets
			WHERE user_id = ?
			ORDER BY updated_at DESC
			LIMIT ? OFFSET ?
		`, userID, limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, user_id, event_id, barcode, status, price, notes, created_at, updated_at
			FROM tickets
			WHERE user_id = ? AND status = ?
			ORDER BY updated_at DESC
			LIMIT ? OFFSET ?
		`, userID, status, limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]models.Ticket, 0, limit)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket row: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var price sql.NullFloat64
	var notes sql.NullString
	var created, updated time.Time

	if err := row.Scan(&t.ID, &t.UserID, &t.EventID, &t.Barcode, &t.Status,
		&price, &notes, &created, &updated); err != nil {
		return nil, err
	}
	if price.Valid {
		v := price.Float64
		t.Price = &v
	}
	t.Notes = notes.String
	t.CreatedAt = created
	t.UpdatedAt = updated
	return &t, nil
}
