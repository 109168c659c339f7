package room

import "errors"

var (
	// ErrRoomNotFound indicates the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomNumberTaken signals a room number collision on insert.
	ErrRoomNumberTaken = errors.New("room number already taken")
	// ErrWrongPassword is returned when a join attempt fails the password check.
	ErrWrongPassword = errors.New("wrong room password")
	// ErrNotRoomCreator is returned when someone other than the creator
	// attempts to delete a room.
	ErrNotRoomCreator = errors.New("not the room creator")
	// ErrInvalidRoom indicates a room with missing name or password.
	ErrInvalidRoom = errors.New("room name and password are required")
	// ErrExhaustedRetries is returned when no free room number could be found
	// within the attempt budget.
	ErrExhaustedRetries = errors.New("exhausted room number attempts")
)
