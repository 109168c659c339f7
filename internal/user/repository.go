package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access for user directory, profile and data
// blob concerns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns the directory ordered by display name.
func (r *Repository) ListUsers(ctx context.Context) ([]DirectoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	entries := make([]DirectoryEntry, 0)
	for rows.Next() {
		var e DirectoryEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateName changes the caller's display name and returns the fresh profile.
func (r *Repository) UpdateName(ctx context.Context, userID uuid.UUID, name string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE users
SET name = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, email, name, is_admin;`

	var p Profile
	err := r.pool.QueryRow(ctx, query, userID, name).Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("update name: %w", err)
	}
	return p, nil
}

// GetData fetches the caller's JSON blob. A missing row is not an error; the
// returned pointer is nil.
func (r *Repository) GetData(ctx context.Context, userID uuid.UUID) (*DataBlob, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var blob DataBlob
	err := r.pool.QueryRow(ctx,
		`SELECT data, updated_at FROM user_data WHERE user_id = $1;`, userID,
	).Scan(&blob.Data, &blob.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user data: %w", err)
	}
	return &blob, nil
}

// SaveData upserts the caller's JSON blob.
func (r *Repository) SaveData(ctx context.Context, userID uuid.UUID, data json.RawMessage) (DataBlob, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO user_data (user_id, data)
VALUES ($1, $2)
ON CONFLICT (user_id)
DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
RETURNING data, updated_at;`

	var blob DataBlob
	if err := r.pool.QueryRow(ctx, query, userID, data).Scan(&blob.Data, &blob.UpdatedAt); err != nil {
		return DataBlob{}, fmt.Errorf("save user data: %w", err)
	}
	return blob, nil
}

// QuestionStats aggregates question counts per user, busiest authors first.
func (r *Repository) QuestionStats(ctx context.Context) ([]Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT u.id, u.name, u.email, COUNT(q.id) AS question_count
FROM users u
LEFT JOIN questions q ON u.id = q.creator_id
GROUP BY u.id, u.name, u.email
ORDER BY question_count DESC, u.name ASC;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("question stats: %w", err)
	}
	defer rows.Close()

	stats := make([]Stats, 0)
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
