package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener captures session lifecycle notifications.
type recordingListener struct {
	mu      sync.Mutex
	rotated []Tokens
	cleared int
}

func (r *recordingListener) TokensRotated(tokens Tokens) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotated = append(r.rotated, tokens)
}

func (r *recordingListener) SessionCleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recordingListener) rotations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rotated)
}

func (r *recordingListener) clearedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleared
}

// fakeAPI is a minimal stand-in for the server that lets tests control which
// access token is accepted and observe refresh traffic.
type fakeAPI struct {
	mu             sync.Mutex
	validAccess    string
	validRefresh   string
	refreshCalls   atomic.Int64
	refreshFails   bool
	usersAlways401 bool
	rotations      int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		writeAuth(w, http.StatusOK, f.validAccess, f.validRefresh)
	})

	mux.HandleFunc("/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.refreshCalls.Add(1)

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.refreshFails || body.RefreshToken != f.validRefresh {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid refresh token"})
			return
		}
		f.rotations++
		f.validAccess = "access-" + strconv.Itoa(f.rotations)
		f.validRefresh = "refresh-" + strconv.Itoa(f.rotations)
		writeAuth(w, http.StatusOK, f.validAccess, f.validRefresh)
	})

	mux.HandleFunc("/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		valid := "Bearer "+f.validAccess == r.Header.Get("Authorization") && !f.usersAlways401
		f.mu.Unlock()
		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string][]DirectoryEntry{
			"users": {{ID: "u1", Name: "Alice", Email: "a@x.com"}},
		})
	})

	mux.HandleFunc("/v1/questions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "question not found"})
	})

	return mux
}

func writeAuth(w http.ResponseWriter, status int, access, refresh string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user": User{ID: "u1", Email: "a@x.com", Name: "Alice"},
		"tokens": Tokens{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	})
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client, *recordingListener) {
	t.Helper()
	api := &fakeAPI{validAccess: "access-0", validRefresh: "refresh-0"}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	listener := &recordingListener{}
	return api, New(srv.URL, WithListener(listener)), listener
}

func TestLoginStartsSession(t *testing.T) {
	_, c, listener := newFakeAPI(t)

	user, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, c.Session().Active())
	assert.Equal(t, "access-0", c.Session().Tokens().AccessToken)
	assert.Equal(t, 1, listener.rotations())
}

func TestExpiredTokenIsRefreshedAndRetried(t *testing.T) {
	api, c, listener := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	// the server stops accepting the issued access token
	api.mu.Lock()
	api.validAccess = "access-rotated-elsewhere"
	api.mu.Unlock()

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.Equal(t, 2, listener.rotations())
	assert.Equal(t, "access-1", c.Session().Tokens().AccessToken)
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	api, c, _ := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	api.mu.Lock()
	api.validAccess = "access-rotated-elsewhere"
	api.mu.Unlock()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Users(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load(),
		"concurrent 401s must collapse into a single refresh")
}

func TestFailedRefreshClearsSession(t *testing.T) {
	api, c, listener := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	api.mu.Lock()
	api.validAccess = "access-rotated-elsewhere"
	api.refreshFails = true
	api.mu.Unlock()

	_, err = c.Users(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, c.Session().Active())
	assert.Equal(t, 1, listener.clearedCount())

	// with no credentials left, calls fail fast without touching the network
	before := api.refreshCalls.Load()
	_, err = c.Users(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, before, api.refreshCalls.Load())
}

func TestUnauthorizedRetryKeepsRotatedSession(t *testing.T) {
	api, c, listener := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	// the endpoint keeps rejecting even the rotated token, e.g. a permission
	// revocation rather than expiry
	api.mu.Lock()
	api.usersAlways401 = true
	api.mu.Unlock()

	_, err = c.Users(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	// one refresh happened, and the rotated session is kept usable
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.True(t, c.Session().Active())
	assert.Equal(t, 0, listener.clearedCount())
	assert.Equal(t, "access-1", c.Session().Tokens().AccessToken)

	api.mu.Lock()
	api.usersAlways401 = false
	api.mu.Unlock()

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.EqualValues(t, 1, api.refreshCalls.Load(), "the rotated token needs no further refresh")
}

func TestAPIErrorSurfaced(t *testing.T) {
	_, c, _ := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	err = c.DeleteQuestion(context.Background(), "nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "question not found", apiErr.Message)
}

func TestLogoutClearsSession(t *testing.T) {
	_, c, listener := newFakeAPI(t)

	_, err := c.Login(context.Background(), "a@x.com", "StrongPass1!")
	require.NoError(t, err)

	c.Logout()
	assert.False(t, c.Session().Active())
	assert.Equal(t, 1, listener.clearedCount())

	_, err = c.Users(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}
