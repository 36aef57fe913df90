package auth

import "errors"

var (
	// ErrForbidden is returned for missing, unknown or insufficiently
	// privileged credentials
	ErrForbidden = errors.New("could not validate credentials")

	// ErrKeyNotFound is returned when a key store has no record for a key
	ErrKeyNotFound = errors.New("API key not found")

	// ErrKeyExists is returned when inserting a key that is already stored
	ErrKeyExists = errors.New("API key already exists")

	// ErrInvalidOwner is returned when issuing a key without an owner
	ErrInvalidOwner = errors.New("owner identifier is required")
)
