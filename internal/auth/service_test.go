package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abduss/quizroom/internal/config"
	"github.com/google/uuid"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret:     "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		BcryptCost:      10,
	}
}

type memoryStore struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]User)}
}

func (m *memoryStore) CreateUser(_ context.Context, email, passwordHash, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[email]; exists {
		return User{}, ErrEmailAlreadyExists
	}
	user := User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *memoryStore) FindUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) FindUserByID(_ context.Context, id uuid.UUID) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) delete(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, email)
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from response")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected user stored; got %d", len(store.users))
	}
}

func TestRegisterEmptyFields(t *testing.T) {
	service := NewService(newMemoryStore(), testAuthConfig())

	cases := []RegisterInput{
		{Email: "", Password: "StrongPass1!", Name: "User"},
		{Email: "user@example.com", Password: "", Name: "User"},
		{Email: "user@example.com", Password: "StrongPass1!", Name: ""},
	}
	for _, input := range cases {
		if _, err := service.Register(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	first, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "First",
	})
	if err != nil {
		t.Fatalf("initial registration returned error: %v", err)
	}

	_, err = service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "AnotherPass2!",
		Name:     "Second",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	// the first account must be unaffected
	stored, err := store.FindUserByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("first account lookup failed: %v", err)
	}
	if stored.ID != first.User.ID || stored.Name != "First" {
		t.Fatalf("first account was modified by the failed registration")
	}
}

func TestLogin(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "a@x.com",
		Password: "right-password",
		Name:     "A",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, wrongPass := service.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong"})
	_, unknownUser := service.Login(context.Background(), LoginInput{Email: "noone@x.com", Password: "x"})

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("error shapes differ: %q vs %q", wrongPass, unknownUser)
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := service.VerifyAccessToken(result.Tokens.AccessToken); err != nil {
		t.Fatalf("fresh token failed verification: %v", err)
	}

	service.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := service.VerifyAccessToken(result.Tokens.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after TTL elapsed, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	initial, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	seen := map[string]bool{initial.Tokens.AccessToken: true}
	refresh := initial.Tokens.RefreshToken
	for i := 0; i < 3; i++ {
		rotated, err := service.Refresh(context.Background(), refresh)
		if err != nil {
			t.Fatalf("refresh %d returned error: %v", i, err)
		}
		if seen[rotated.Tokens.AccessToken] {
			t.Fatalf("refresh %d returned a previously issued access token", i)
		}
		seen[rotated.Tokens.AccessToken] = true
		refresh = rotated.Tokens.RefreshToken
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, err = service.Refresh(context.Background(), result.Tokens.AccessToken)
	if !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	service := NewService(newMemoryStore(), testAuthConfig())

	_, err := service.Refresh(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshDeletedUser(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	store.delete("user@example.com")

	_, err = service.Refresh(context.Background(), result.Tokens.RefreshToken)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Name:     "User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	store.mu.Lock()
	user := store.users["user@example.com"]
	user.IsAdmin = true
	store.users["user@example.com"] = user
	store.mu.Unlock()

	rotated, err := service.Refresh(context.Background(), result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}

	claims, err := service.VerifyAccessToken(rotated.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify rotated token: %v", err)
	}
	if !claims.IsAdmin {
		t.Fatalf("expected rotated token to carry the new admin flag")
	}
}
