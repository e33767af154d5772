package artists

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gighub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const artistColumns = `id, name, external_id, genres, image_url, created_at, updated_at`

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Artist, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+artistColumns+` FROM artists WHERE id = ?
	`, id)
	return scanArtistRow(row, "get artist")
}

func (r *Repo) GetByName(ctx context.Context, name string) (*models.Artist, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+artistColumns+` FROM artists WHERE name = ? COLLATE NOCASE
	`, name)
	return scanArtistRow(row, "get artist by name")
}

func (r *Repo) List(ctx context.Context, q string, limit, offset int) ([]models.Artist, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var (
		where string
		args  []any
	)
	if kw := strings.TrimSpace(q); kw != "" {
		where = `WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count artists: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+artistColumns+` FROM artists `+where+`
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	out := make([]models.Artist, 0, limit)
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan artist row: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtistRow(row rowScanner, op string) (*models.Artist, error) {
	a, err := scanArtist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
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
