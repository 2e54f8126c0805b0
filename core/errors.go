package core

import "errors"

var (
	// ErrNotFound is returned when an agent id is unknown.
	ErrNotFound = errors.New("agent not found")
	// ErrDuplicateID is returned when an agent id is already taken.
	ErrDuplicateID = errors.New("agent id already exists")
	// ErrProvider wraps any completion provider failure.
	ErrProvider = errors.New("completion provider error")
	// ErrPersistence wraps any store failure that is not a lookup miss.
	ErrPersistence = errors.New("persistence error")
	// ErrChain wraps any chain read or transaction failure.
	ErrChain = errors.New("chain error")
	// ErrParse is returned for a malformed token identifier.
	ErrParse = errors.New("malformed token id")
	// ErrNotOwner is returned when a caller's owner credential does not match.
	ErrNotOwner = errors.New("access denied: not the owner")
	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
