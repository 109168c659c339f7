package user

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Profile is the public view of a user row.
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"is_admin"`
}

// DirectoryEntry is a user as listed for addressee selection.
type DirectoryEntry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// DataBlob is the caller's arbitrary JSON document.
type DataBlob struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Stats aggregates question counts per user for the admin view.
type Stats struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	QuestionCount int64     `json:"question_count"`
}
