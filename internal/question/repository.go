package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access for questions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateQuestions inserts a batch of questions in one transaction.
func (r *Repository) CreateQuestions(ctx context.Context, creatorID uuid.UUID, inputs []NewQuestion) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO questions (text, addressee_id, creator_id)
VALUES ($1, $2, $3)
RETURNING id, text, addressee_id, creator_id, included_in_game, created_at, updated_at;`

	created := make([]Question, 0, len(inputs))
	for _, input := range inputs {
		var q Question
		err := tx.QueryRow(ctx, query, input.Text, input.AddresseeID, creatorID).Scan(
			&q.ID, &q.Text, &q.AddresseeID, &q.CreatorID, &q.IncludedInGame, &q.CreatedAt, &q.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, ErrAddresseeNotFound
			}
			return nil, fmt.Errorf("insert question: %w", err)
		}
		created = append(created, q)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// ListByCreator returns the creator's questions, newest first, with names
// joined in.
func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]View, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT q.id, q.text, q.addressee_id, a.name, a.email, c.name, q.included_in_game, q.created_at
FROM questions q
JOIN users a ON q.addressee_id = a.id
JOIN users c ON q.creator_id = c.id
WHERE q.creator_id = $1
ORDER BY q.created_at DESC;`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	views := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.Text, &v.AddresseeID, &v.AddresseeName, &v.AddresseeEmail, &v.CreatorName, &v.IncludedInGame, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Get fetches a single question by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Question, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, text, addressee_id, creator_id, included_in_game, created_at, updated_at
FROM questions
WHERE id = $1;`

	var q Question
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.Text, &q.AddresseeID, &q.CreatorID, &q.IncludedInGame, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// Update rewrites a question's text and addressee.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, text string, addresseeID uuid.UUID) (Question, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE questions
SET text = $2, addressee_id = $3, updated_at = NOW()
WHERE id = $1
RETURNING id, text, addressee_id, creator_id, included_in_game, created_at, updated_at;`

	var q Question
	err := r.pool.QueryRow(ctx, query, id, text, addresseeID).Scan(
		&q.ID, &q.Text, &q.AddresseeID, &q.CreatorID, &q.IncludedInGame, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		if isForeignKeyViolation(err) {
			return Question{}, ErrAddresseeNotFound
		}
		return Question{}, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// ToggleGame flips the included_in_game flag.
func (r *Repository) ToggleGame(ctx context.Context, id uuid.UUID) (Question, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE questions
SET included_in_game = NOT included_in_game, updated_at = NOW()
WHERE id = $1
RETURNING id, text, addressee_id, creator_id, included_in_game, created_at, updated_at;`

	var q Question
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.Text, &q.AddresseeID, &q.CreatorID, &q.IncludedInGame, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, fmt.Errorf("toggle question: %w", err)
	}
	return q, nil
}

// GameFeed returns every question included in the game, in random order.
func (r *Repository) GameFeed(ctx context.Context) ([]GameQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT q.id, q.text, a.name
FROM questions q
JOIN users a ON q.addressee_id = a.id
WHERE q.included_in_game
ORDER BY RANDOM();`

	return r.queryGameFeed(ctx, query)
}

// GameFeedForRoom returns included questions whose addressee is a member of
// the room, in random order.
func (r *Repository) GameFeedForRoom(ctx context.Context, roomID uuid.UUID) ([]GameQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT q.id, q.text, a.name
FROM questions q
JOIN users a ON q.addressee_id = a.id
JOIN room_memberships m ON m.user_id = q.addressee_id AND m.room_id = $1
WHERE q.included_in_game
ORDER BY RANDOM();`

	return r.queryGameFeed(ctx, query, roomID)
}

func (r *Repository) queryGameFeed(ctx context.Context, query string, args ...any) ([]GameQuestion, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("game feed: %w", err)
	}
	defer rows.Close()

	feed := make([]GameQuestion, 0)
	for rows.Next() {
		var g GameQuestion
		if err := rows.Scan(&g.ID, &g.Text, &g.AddresseeName); err != nil {
			return nil, fmt.Errorf("scan game question: %w", err)
		}
		feed = append(feed, g)
	}
	return feed, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
