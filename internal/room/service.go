package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// maxRoomNumberAttempts bounds the collision re-sampling loop; without a
// bound a nearly-full number space would spin forever.
const maxRoomNumberAttempts = 10

const (
	roomNumberMin = 100
	roomNumberMax = 999
)

type repository interface {
	CreateRoom(ctx context.Context, roomNumber int, name, passwordHash string, createdBy uuid.UUID) (Room, error)
	FindByNumber(ctx context.Context, roomNumber int) (Room, error)
	FindByID(ctx context.Context, id uuid.UUID) (Room, error)
	AddMember(ctx context.Context, roomID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
	ListRooms(ctx context.Context) ([]Summary, error)
	ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]Summary, error)
}

// Service orchestrates room lifecycle and membership.
type Service struct {
	repo       repository
	bcryptCost int
	sampleCode func() int
}

// NewService constructs a room service.
func NewService(repo repository, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		sampleCode: func() int { return roomNumberMin + rand.Intn(roomNumberMax-roomNumberMin+1) },
	}
}

// Create makes a new room with a unique 3-digit number and the caller as its
// first member. Number collisions are re-sampled up to maxRoomNumberAttempts
// times before giving up with ErrExhaustedRetries.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, name, password string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return Room{}, ErrInvalidRoom
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Room{}, fmt.Errorf("hash room password: %w", err)
	}

	for attempt := 0; attempt < maxRoomNumberAttempts; attempt++ {
		room, err := s.repo.CreateRoom(ctx, s.sampleCode(), name, string(passwordHash), createdBy)
		if err != nil {
			if errors.Is(err, ErrRoomNumberTaken) {
				continue
			}
			return Room{}, err
		}
		return room, nil
	}
	return Room{}, ErrExhaustedRetries
}

// Join adds the caller to the room identified by its number. Joining a room
// the caller already belongs to has no effect.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, roomNumber int, password string) (Room, error) {
	room, err := s.repo.FindByNumber(ctx, roomNumber)
	if err != nil {
		return Room{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
		return Room{}, ErrWrongPassword
	}

	if err := s.repo.AddMember(ctx, room.ID, userID); err != nil {
		return Room{}, err
	}
	return room, nil
}

// Leave removes the caller's membership.
func (s *Service) Leave(ctx context.Context, userID, roomID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, roomID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, roomID, userID)
}

// Delete removes a room and all its memberships. Creator only.
func (s *Service) Delete(ctx context.Context, callerID, roomID uuid.UUID) error {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != callerID {
		return ErrNotRoomCreator
	}
	return s.repo.DeleteRoom(ctx, roomID)
}

// Available lists every room.
func (s *Service) Available(ctx context.Context) ([]Summary, error) {
	return s.repo.ListRooms(ctx)
}

// MyRooms lists the caller's rooms.
func (s *Service) MyRooms(ctx context.Context, userID uuid.UUID) ([]Summary, error) {
	return s.repo.ListRoomsForUser(ctx, userID)
}
