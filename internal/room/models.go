package room

import (
	"time"

	"github.com/google/uuid"
)

// Room is a password-protected grouping of users. The room number is a
// globally unique 3-digit code used to join.
type Room struct {
	ID           uuid.UUID `json:"id"`
	RoomNumber   int       `json:"room_number"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is a room as listed publicly, without the password hash.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	RoomNumber  int       `json:"room_number"`
	Name        string    `json:"name"`
	CreatedBy   uuid.UUID `json:"created_by"`
	MemberCount int64     `json:"member_count"`
}
