package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the login or password is incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBanned is returned when the account is banned
	ErrBanned = errors.New("account banned")

	// ErrGeoDenied is returned when the client IP is outside the prefixes
	// registered for the account's country
	ErrGeoDenied = errors.New("country mismatch")

	// ErrInvalidToken is returned when a bearer token fails verification
	ErrInvalidToken = errors.New("invalid token")
)
