package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryRepo struct {
	rooms   map[uuid.UUID]Room
	byCode  map[int]uuid.UUID
	members map[uuid.UUID]map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rooms:   make(map[uuid.UUID]Room),
		byCode:  make(map[int]uuid.UUID),
		members: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *memoryRepo) CreateRoom(_ context.Context, roomNumber int, name, passwordHash string, createdBy uuid.UUID) (Room, error) {
	if _, taken := m.byCode[roomNumber]; taken {
		return Room{}, ErrRoomNumberTaken
	}
	room := Room{
		ID:           uuid.New(),
		RoomNumber:   roomNumber,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
	}
	m.rooms[room.ID] = room
	m.byCode[roomNumber] = room.ID
	m.members[room.ID] = map[uuid.UUID]bool{createdBy: true}
	return room, nil
}

func (m *memoryRepo) FindByNumber(_ context.Context, roomNumber int) (Room, error) {
	id, ok := m.byCode[roomNumber]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return m.rooms[id], nil
}

func (m *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return room, nil
}

func (m *memoryRepo) AddMember(_ context.Context, roomID, userID uuid.UUID) error {
	m.members[roomID][userID] = true
	return nil
}

func (m *memoryRepo) RemoveMember(_ context.Context, roomID, userID uuid.UUID) error {
	delete(m.members[roomID], userID)
	return nil
}

func (m *memoryRepo) DeleteRoom(_ context.Context, roomID uuid.UUID) error {
	room, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	delete(m.byCode, room.RoomNumber)
	delete(m.rooms, roomID)
	delete(m.members, roomID)
	return nil
}

func (m *memoryRepo) ListRooms(_ context.Context) ([]Summary, error) {
	summaries := make([]Summary, 0, len(m.rooms))
	for id, room := range m.rooms {
		summaries = append(summaries, Summary{
			ID:          id,
			RoomNumber:  room.RoomNumber,
			Name:        room.Name,
			CreatedBy:   room.CreatedBy,
			MemberCount: int64(len(m.members[id])),
		})
	}
	return summaries, nil
}

func (m *memoryRepo) ListRoomsForUser(_ context.Context, userID uuid.UUID) ([]Summary, error) {
	summaries := make([]Summary, 0)
	for id, room := range m.rooms {
		if m.members[id][userID] {
			summaries = append(summaries, Summary{
				ID:          id,
				RoomNumber:  room.RoomNumber,
				Name:        room.Name,
				CreatedBy:   room.CreatedBy,
				MemberCount: int64(len(m.members[id])),
			})
		}
	}
	return summaries, nil
}

const testBcryptCost = 10

func TestCreateRoomAddsCreatorAsMember(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, testBcryptCost)
	creator := uuid.New()

	room, err := service.Create(context.Background(), creator, "friday quiz", "hunter2")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if room.RoomNumber < 100 || room.RoomNumber > 999 {
		t.Fatalf("room number out of range: %d", room.RoomNumber)
	}
	if !repo.members[room.ID][creator] {
		t.Fatalf("expected creator to be a member")
	}
}

func TestCreateRoomValidatesInput(t *testing.T) {
	service := NewService(newMemoryRepo(), testBcryptCost)

	if _, err := service.Create(context.Background(), uuid.New(), "  ", "pw"); !errors.Is(err, ErrInvalidRoom) {
		t.Fatalf("expected ErrInvalidRoom for blank name, got %v", err)
	}
	if _, err := service.Create(context.Background(), uuid.New(), "name", ""); !errors.Is(err, ErrInvalidRoom) {
		t.Fatalf("expected ErrInvalidRoom for empty password, got %v", err)
	}
}

func TestCreateRoomResamplesOnCollision(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, testBcryptCost)

	codes := []int{500, 500, 501}
	i := 0
	service.sampleCode = func() int {
		code := codes[i%len(codes)]
		i++
		return code
	}

	first, err := service.Create(context.Background(), uuid.New(), "one", "pw")
	if err != nil {
		t.Fatalf("first create returned error: %v", err)
	}
	if first.RoomNumber != 500 {
		t.Fatalf("expected 500, got %d", first.RoomNumber)
	}

	second, err := service.Create(context.Background(), uuid.New(), "two", "pw")
	if err != nil {
		t.Fatalf("second create returned error: %v", err)
	}
	if second.RoomNumber != 501 {
		t.Fatalf("expected collision to re-sample to 501, got %d", second.RoomNumber)
	}
}

func TestCreateRoomExhaustsRetries(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, testBcryptCost)
	service.sampleCode = func() int { return 777 }

	if _, err := service.Create(context.Background(), uuid.New(), "first", "pw"); err != nil {
		t.Fatalf("first create returned error: %v", err)
	}

	_, err := service.Create(context.Background(), uuid.New(), "second", "pw")
	if !errors.Is(err, ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, testBcryptCost)
	creator := uuid.New()
	joiner := uuid.New()

	room, err := service.Create(context.Background(), creator, "quiz", "hunter2")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := service.Join(context.Background(), joiner, room.RoomNumber, "hunter2"); err != nil {
			t.Fatalf("join %d returned error: %v", i, err)
		}
	}

	count := 0
	for range repo.members[room.ID] {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 members after double join, got %d", count)
	}
}

func TestJoinWrongPassword(t *testing.T) {
	service := NewService(newMemoryRepo(), testBcryptCost)
	creator := uuid.New()

	room, err := service.Create(context.Background(), creator, "quiz", "hunter2")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	_, err = service.Join(context.Background(), uuid.New(), room.RoomNumber, "wrong")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	service := NewService(newMemoryRepo(), testBcryptCost)

	_, err := service.Join(context.Background(), uuid.New(), 999, "pw")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestDeleteRoomCreatorOnly(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, testBcryptCost)
	creator := uuid.New()
	other := uuid.New()

	room, err := service.Create(context.Background(), creator, "quiz", "hunter2")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := service.Delete(context.Background(), other, room.ID); !errors.Is(err, ErrNotRoomCreator) {
		t.Fatalf("expected ErrNotRoomCreator, got %v", err)
	}
	if err := service.Delete(context.Background(), creator, room.ID); err != nil {
		t.Fatalf("delete by creator returned error: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room gone after delete, got %v", err)
	}
}
