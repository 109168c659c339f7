package client

import "sync"

// Tokens is the credential pair held by a session. Expiry values are unix
// seconds as served by the API.
type Tokens struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

// User is the account snapshot returned by the auth endpoints.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// TokenListener receives session lifecycle notifications, letting callers
// persist rotated tokens or react to a forced logout.
type TokenListener interface {
	TokensRotated(tokens Tokens)
	SessionCleared()
}

// Session holds the authenticated state of a Client. All access is
// mutex-guarded so concurrent requests observe a consistent token pair.
type Session struct {
	mu     sync.RWMutex
	user   User
	tokens Tokens
	active bool
}

// Active reports whether the session currently holds credentials.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// User returns the account snapshot captured at login.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Tokens returns a copy of the current token pair.
func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *Session) start(user User, tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.tokens = tokens
	s.active = true
}

func (s *Session) rotate(user User, tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.tokens = tokens
	s.active = true
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = User{}
	s.tokens = Tokens{}
	s.active = false
}

func (s *Session) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) refreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}
