package auth

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed registration field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when authentication fails. The same
	// value covers unknown emails and wrong passwords so callers cannot probe
	// which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents missing or invalid access tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRefreshToken is returned when a refresh token fails verification.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrWrongTokenType is returned when a structurally valid token carries
	// the wrong type tag, e.g. an access token presented for refresh.
	ErrWrongTokenType = errors.New("wrong token type")
)
