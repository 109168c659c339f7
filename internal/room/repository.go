package room

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

// Repository provides database access for rooms and memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRoom inserts a room and its creator's membership in one transaction.
// A room number collision fails with ErrRoomNumberTaken so the caller can
// re-sample.
func (r *Repository) CreateRoom(ctx context.Context, roomNumber int, name, passwordHash string, createdBy uuid.UUID) (Room, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Room{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO rooms (room_number, name, password_hash, created_by)
VALUES ($1, $2, $3, $4)
RETURNING id, room_number, name, password_hash, created_by, created_at;`

	var room Room
	err = tx.QueryRow(ctx, query, roomNumber, name, passwordHash, createdBy).Scan(
		&room.ID, &room.RoomNumber, &room.Name, &room.PasswordHash, &room.CreatedBy, &room.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Room{}, ErrRoomNumberTaken
		}
		return Room{}, fmt.Errorf("insert room: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO room_memberships (room_id, user_id) VALUES ($1, $2);`,
		room.ID, createdBy,
	); err != nil {
		return Room{}, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Room{}, fmt.Errorf("commit: %w", err)
	}
	return room, nil
}

// FindByNumber fetches a room by its 3-digit code.
func (r *Repository) FindByNumber(ctx context.Context, roomNumber int) (Room, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, room_number, name, password_hash, created_by, created_at
FROM rooms
WHERE room_number = $1;`

	return r.scanRoom(r.pool.QueryRow(ctx, query, roomNumber))
}

// FindByID fetches a room by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Room, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, room_number, name, password_hash, created_by, created_at
FROM rooms
WHERE id = $1;`

	return r.scanRoom(r.pool.QueryRow(ctx, query, id))
}

// AddMember inserts a membership; joining an already-joined room is a no-op.
func (r *Repository) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
INSERT INTO room_memberships (room_id, user_id)
VALUES ($1, $2)
ON CONFLICT (room_id, user_id) DO NOTHING;`, roomID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership.
func (r *Repository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`DELETE FROM room_memberships WHERE room_id = $1 AND user_id = $2;`, roomID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// DeleteRoom removes the room and all its memberships.
func (r *Repository) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM room_memberships WHERE room_id = $1;`, roomID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1;`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return tx.Commit(ctx)
}

// ListRooms returns every room with its member count.
func (r *Repository) ListRooms(ctx context.Context) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT r.id, r.room_number, r.name, r.created_by, COUNT(m.user_id) AS member_count
FROM rooms r
LEFT JOIN room_memberships m ON m.room_id = r.id
GROUP BY r.id, r.room_number, r.name, r.created_by
ORDER BY r.room_number;`

	return r.queryRooms(ctx, query)
}

// ListRoomsForUser returns the rooms the user belongs to.
func (r *Repository) ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT r.id, r.room_number, r.name, r.created_by, COUNT(all_m.user_id) AS member_count
FROM rooms r
JOIN room_memberships mine ON mine.room_id = r.id AND mine.user_id = $1
LEFT JOIN room_memberships all_m ON all_m.room_id = r.id
GROUP BY r.id, r.room_number, r.name, r.created_by
ORDER BY r.room_number;`

	return r.queryRooms(ctx, query, userID)
}

// RoomExists reports whether a room id refers to an active room.
func (r *Repository) RoomExists(ctx context.Context, roomID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1);`, roomID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return exists, nil
}

// IsMember reports whether the user belongs to the room.
func (r *Repository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var member bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_memberships WHERE room_id = $1 AND user_id = $2);`,
		roomID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return member, nil
}

func (r *Repository) scanRoom(row pgx.Row) (Room, error) {
	var room Room
	err := row.Scan(&room.ID, &room.RoomNumber, &room.Name, &room.PasswordHash, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, fmt.Errorf("find room: %w", err)
	}
	return room, nil
}

func (r *Repository) queryRooms(ctx context.Context, query string, args ...any) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.RoomNumber, &s.Name, &s.CreatedBy, &s.MemberCount); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
