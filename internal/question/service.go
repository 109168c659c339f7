package question

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	CreateQuestions(ctx context.Context, creatorID uuid.UUID, inputs []NewQuestion) ([]Question, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]View, error)
	Get(ctx context.Context, id uuid.UUID) (Question, error)
	Update(ctx context.Context, id uuid.UUID, text string, addresseeID uuid.UUID) (Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleGame(ctx context.Context, id uuid.UUID) (Question, error)
	GameFeed(ctx context.Context) ([]GameQuestion, error)
	GameFeedForRoom(ctx context.Context, roomID uuid.UUID) ([]GameQuestion, error)
}

// roomDirectory answers membership questions for room-scoped game feeds.
type roomDirectory interface {
	RoomExists(ctx context.Context, roomID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// Service orchestrates question operations and enforces creator ownership.
type Service struct {
	repo  repository
	rooms roomDirectory
}

// NewService constructs a question service.
func NewService(repo repository, rooms roomDirectory) *Service {
	return &Service{repo: repo, rooms: rooms}
}

// Create validates and inserts a batch of questions for the creator.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, inputs []NewQuestion) ([]Question, error) {
	if len(inputs) == 0 {
		return nil, ErrInvalidQuestion
	}
	for i := range inputs {
		inputs[i].Text = strings.TrimSpace(inputs[i].Text)
		if inputs[i].Text == "" || inputs[i].AddresseeID == uuid.Nil {
			return nil, ErrInvalidQuestion
		}
	}
	return s.repo.CreateQuestions(ctx, creatorID, inputs)
}

// ListOwn returns the caller's questions.
func (s *Service) ListOwn(ctx context.Context, creatorID uuid.UUID) ([]View, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

// Update rewrites a question's text and addressee. Only the creator may
// update; the addressee has no say.
func (s *Service) Update(ctx context.Context, callerID, questionID uuid.UUID, text string, addresseeID uuid.UUID) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" || addresseeID == uuid.Nil {
		return Question{}, ErrInvalidQuestion
	}
	if err := s.requireOwner(ctx, callerID, questionID); err != nil {
		return Question{}, err
	}
	return s.repo.Update(ctx, questionID, text, addresseeID)
}

// Delete removes a question. Creator only.
func (s *Service) Delete(ctx context.Context, callerID, questionID uuid.UUID) error {
	if err := s.requireOwner(ctx, callerID, questionID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, questionID)
}

// ToggleGame flips whether a question appears in the game. Creator only.
func (s *Service) ToggleGame(ctx context.Context, callerID, questionID uuid.UUID) (Question, error) {
	if err := s.requireOwner(ctx, callerID, questionID); err != nil {
		return Question{}, err
	}
	return s.repo.ToggleGame(ctx, questionID)
}

// GameQuestions returns the randomized feed. With a room id the caller must
// be a member, and only questions addressed to room members are returned.
func (s *Service) GameQuestions(ctx context.Context, callerID uuid.UUID, roomID *uuid.UUID) ([]GameQuestion, error) {
	if roomID == nil {
		return s.repo.GameFeed(ctx)
	}

	exists, err := s.rooms.RoomExists(ctx, *roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	member, err := s.rooms.IsMember(ctx, *roomID, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotRoomMember
	}

	return s.repo.GameFeedForRoom(ctx, *roomID)
}

func (s *Service) requireOwner(ctx context.Context, callerID, questionID uuid.UUID) error {
	q, err := s.repo.Get(ctx, questionID)
	if err != nil {
		return err
	}
	if q.CreatorID != callerID {
		return ErrNotQuestionOwner
	}
	return nil
}
