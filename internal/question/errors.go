package question

import "errors"

var (
	// ErrQuestionNotFound indicates the requested question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNotQuestionOwner is returned when someone other than the creator
	// attempts to mutate a question. Being the addressee grants no rights.
	ErrNotQuestionOwner = errors.New("not the question owner")
	// ErrInvalidQuestion indicates a question with missing text or addressee.
	ErrInvalidQuestion = errors.New("question text and addressee are required")
	// ErrAddresseeNotFound indicates the addressee user id does not exist.
	ErrAddresseeNotFound = errors.New("addressee not found")
	// ErrRoomNotFound indicates an unknown room was given for the game feed.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotRoomMember is returned when the caller requests a room-scoped
	// game feed without being a member.
	ErrNotRoomMember = errors.New("not a room member")
)
