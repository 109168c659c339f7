// Package client is a Go client for the QuizRoom API. It manages the token
// lifecycle transparently: on a 401 it refreshes the session once, collapsing
// concurrent refreshes into a single request, and retries the original call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when no usable credentials remain and the
// caller has to log in again.
var ErrSessionExpired = errors.New("client: session expired")

// APIError carries a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to a QuizRoom API server on behalf of one user session.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *Session
	listener TokenListener

	// refreshGroup collapses concurrent refresh attempts into one request
	refreshGroup singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithListener registers a TokenListener notified on rotation and clearing.
func WithListener(l TokenListener) Option {
	return func(c *Client) { c.listener = l }
}

// New constructs a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the client's session state.
func (c *Client) Session() *Session {
	return c.session
}

type authEnvelope struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// Register creates an account and starts a session with the returned tokens.
func (c *Client) Register(ctx context.Context, email, password, name string) (User, error) {
	return c.authenticate(ctx, "/v1/register", map[string]string{
		"email": email, "password": password, "name": name,
	})
}

// Login starts a session for an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	return c.authenticate(ctx, "/v1/login", map[string]string{
		"email": email, "password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (User, error) {
	status, data, err := c.send(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return User{}, err
	}
	if status >= 400 {
		return User{}, apiErrorFrom(status, data)
	}

	var env authEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return User{}, fmt.Errorf("decode auth response: %w", err)
	}
	c.session.start(env.User, env.Tokens)
	if c.listener != nil {
		c.listener.TokensRotated(env.Tokens)
	}
	return env.User, nil
}

// Logout discards the session. Tokens are stateless so there is nothing to
// revoke server-side; they simply age out.
func (c *Client) Logout() {
	c.session.clear()
	if c.listener != nil {
		c.listener.SessionCleared()
	}
}

// refresh exchanges the refresh token for a new pair. Concurrent callers
// share one in-flight request; a caller whose stale token was already
// replaced by someone else's refresh skips the exchange entirely.
func (c *Client) refresh(ctx context.Context, staleAccessToken string) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if c.session.Active() && c.session.accessToken() != staleAccessToken {
			return nil, nil
		}

		refreshToken := c.session.refreshToken()
		if refreshToken == "" {
			return nil, ErrSessionExpired
		}

		status, data, err := c.send(ctx, http.MethodPost, "/v1/refresh", "", map[string]string{
			"refresh_token": refreshToken,
		})
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.session.clear()
			if c.listener != nil {
				c.listener.SessionCleared()
			}
			return nil, ErrSessionExpired
		}

		var env authEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		c.session.rotate(env.User, env.Tokens)
		if c.listener != nil {
			c.listener.TokensRotated(env.Tokens)
		}
		return nil, nil
	})
	return err
}

// do performs an authenticated request. A 401 triggers one refresh and one
// retry; a failed refresh surfaces as ErrSessionExpired. A 401 on the
// retried request is returned as an APIError like any other status code. The
// freshly rotated session stays intact, since other requests may be using it
// successfully.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.session.accessToken()
	if token == "" {
		return ErrSessionExpired
	}

	status, data, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx, token); err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, c.session.accessToken(), body)
		if err != nil {
			return err
		}
	}

	if status >= 400 {
		return apiErrorFrom(status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func apiErrorFrom(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(status)
	}
	return &APIError{Status: status, Message: body.Error}
}

// DirectoryEntry is a user as listed for addressee selection.
type DirectoryEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Question is a question owned by the session user.
type Question struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	AddresseeID    string `json:"addressee_id"`
	AddresseeName  string `json:"addressee_name"`
	IncludedInGame bool   `json:"included_in_game"`
}

// NewQuestion carries data for question creation.
type NewQuestion struct {
	Text        string `json:"text"`
	AddresseeID string `json:"addressee_id"`
}

// GameQuestion is a question as served during play.
type GameQuestion struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AddresseeName string `json:"addressee_name"`
}

// Room is a quiz room.
type Room struct {
	ID         string `json:"id"`
	RoomNumber int    `json:"room_number"`
	Name       string `json:"name"`
	CreatedBy  string `json:"created_by"`
}

// RoomSummary is a room with its member count.
type RoomSummary struct {
	ID          string `json:"id"`
	RoomNumber  int    `json:"room_number"`
	Name        string `json:"name"`
	CreatedBy   string `json:"created_by"`
	MemberCount int64  `json:"member_count"`
}

// UserStats aggregates question counts per user. Admin only.
type UserStats struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	QuestionCount int64  `json:"question_count"`
}

// Users lists all users for addressee selection.
func (c *Client) Users(ctx context.Context) ([]DirectoryEntry, error) {
	var resp struct {
		Users []DirectoryEntry `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UpdateProfile changes the session user's display name.
func (c *Client) UpdateProfile(ctx context.Context, name string) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, "/v1/user/profile", map[string]string{"name": name}, &resp)
	return resp.User, err
}

// Data fetches the session user's JSON document; nil when none was saved.
func (c *Client) Data(ctx context.Context) (json.RawMessage, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/user/data", nil, &resp); err != nil {
		return nil, err
	}
	if bytes.Equal(resp.Data, []byte("null")) {
		return nil, nil
	}
	return resp.Data, nil
}

// SaveData upserts the session user's JSON document.
func (c *Client) SaveData(ctx context.Context, data json.RawMessage) error {
	return c.do(ctx, http.MethodPost, "/v1/user/data", map[string]json.RawMessage{"data": data}, nil)
}

// CreateQuestions submits a batch of questions.
func (c *Client) CreateQuestions(ctx context.Context, questions []NewQuestion) ([]Question, error) {
	var resp struct {
		Questions []Question `json:"questions"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/questions",
		map[string][]NewQuestion{"questions": questions}, &resp)
	return resp.Questions, err
}

// Questions lists the session user's questions.
func (c *Client) Questions(ctx context.Context) ([]Question, error) {
	var resp struct {
		Questions []Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/questions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// UpdateQuestion rewrites a question's text and addressee.
func (c *Client) UpdateQuestion(ctx context.Context, id, text, addresseeID string) (Question, error) {
	var resp struct {
		Question Question `json:"question"`
	}
	err := c.do(ctx, http.MethodPut, "/v1/questions/"+url.PathEscape(id),
		map[string]string{"text": text, "addressee_id": addresseeID}, &resp)
	return resp.Question, err
}

// DeleteQuestion removes a question.
func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/questions/"+url.PathEscape(id), nil, nil)
}

// ToggleGameQuestion flips whether a question appears in the game.
func (c *Client) ToggleGameQuestion(ctx context.Context, id string) (Question, error) {
	var resp struct {
		Question Question `json:"question"`
	}
	err := c.do(ctx, http.MethodPatch, "/v1/questions/"+url.PathEscape(id)+"/toggle-game", nil, &resp)
	return resp.Question, err
}

// GameQuestions fetches the randomized game feed, optionally scoped to a room.
func (c *Client) GameQuestions(ctx context.Context, roomID string) ([]GameQuestion, error) {
	path := "/v1/game/questions"
	if roomID != "" {
		path += "?room_id=" + url.QueryEscape(roomID)
	}
	var resp struct {
		Questions []GameQuestion `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// CreateRoom makes a new room owned by the session user.
func (c *Client) CreateRoom(ctx context.Context, name, password string) (Room, error) {
	var resp struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/rooms",
		map[string]string{"name": name, "password": password}, &resp)
	return resp.Room, err
}

// JoinRoom joins a room by its 3-digit number.
func (c *Client) JoinRoom(ctx context.Context, roomNumber int, password string) (Room, error) {
	var resp struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/rooms/join",
		map[string]any{"room_number": roomNumber, "password": password}, &resp)
	return resp.Room, err
}

// LeaveRoom removes the session user from a room.
func (c *Client) LeaveRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/rooms/"+url.PathEscape(id)+"/leave", nil, nil)
}

// DeleteRoom removes a room the session user created.
func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/rooms/"+url.PathEscape(id), nil, nil)
}

// AvailableRooms lists every room.
func (c *Client) AvailableRooms(ctx context.Context) ([]RoomSummary, error) {
	var resp struct {
		Rooms []RoomSummary `json:"rooms"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/rooms/available", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// MyRooms lists the rooms the session user belongs to.
func (c *Client) MyRooms(ctx context.Context) ([]RoomSummary, error) {
	var resp struct {
		Rooms []RoomSummary `json:"rooms"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/rooms/my-rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// UserStatsReport fetches per-user question counts. Admin only.
func (c *Client) UserStatsReport(ctx context.Context) ([]UserStats, error) {
	var resp struct {
		Stats []UserStats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/admin/user-stats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}
