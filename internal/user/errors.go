package user

import "errors"

var (
	// ErrNameRequired indicates a profile update with an empty display name.
	ErrNameRequired = errors.New("name is required")
	// ErrUserNotFound signals that the user row no longer exists.
	ErrUserNotFound = errors.New("user not found")
)
