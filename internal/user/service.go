package user

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	ListUsers(ctx context.Context) ([]DirectoryEntry, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) (Profile, error)
	GetData(ctx context.Context, userID uuid.UUID) (*DataBlob, error)
	SaveData(ctx context.Context, userID uuid.UUID, data json.RawMessage) (DataBlob, error)
	QuestionStats(ctx context.Context) ([]Stats, error)
}

// Service orchestrates user directory, profile and data blob operations.
type Service struct {
	repo repository
}

// NewService constructs a user service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Directory returns all users for addressee selection.
func (s *Service) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateProfile changes the caller's display name.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, ErrNameRequired
	}
	return s.repo.UpdateName(ctx, userID, name)
}

// Data fetches the caller's JSON blob; nil when none was ever saved.
func (s *Service) Data(ctx context.Context, userID uuid.UUID) (*DataBlob, error) {
	return s.repo.GetData(ctx, userID)
}

// SaveData upserts the caller's JSON blob.
func (s *Service) SaveData(ctx context.Context, userID uuid.UUID, data json.RawMessage) (DataBlob, error) {
	return s.repo.SaveData(ctx, userID, data)
}

// QuestionStats aggregates question counts per user.
func (s *Service) QuestionStats(ctx context.Context) ([]Stats, error) {
	return s.repo.QuestionStats(ctx)
}
