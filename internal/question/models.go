package question

import (
	"time"

	"github.com/google/uuid"
)

// Question represents a quiz question addressed to a user.
type Question struct {
	ID             uuid.UUID `json:"id"`
	Text           string    `json:"text"`
	AddresseeID    uuid.UUID `json:"addressee_id"`
	CreatorID      uuid.UUID `json:"creator_id"`
	IncludedInGame bool      `json:"included_in_game"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

// View is a question joined with addressee and creator names for listings.
type View struct {
	ID             uuid.UUID `json:"id"`
	Text           string    `json:"text"`
	AddresseeID    uuid.UUID `json:"addressee_id"`
	AddresseeName  string    `json:"addressee_name"`
	AddresseeEmail string    `json:"addressee_email"`
	CreatorName    string    `json:"creator_name"`
	IncludedInGame bool      `json:"included_in_game"`
	CreatedAt      time.Time `json:"created_at"`
}

// GameQuestion is the minimal shape served during play.
type GameQuestion struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	AddresseeName string    `json:"addressee_name"`
}

// NewQuestion carries data for question creation.
type NewQuestion struct {
	Text        string
	AddresseeID uuid.UUID
}
