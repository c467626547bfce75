package users

import "errors"

var (
	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a login that is already taken
	ErrUserExists = errors.New("user already exists")
)
