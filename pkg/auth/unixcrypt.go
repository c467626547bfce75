package auth

import (
	"errors"

	"github.com/digitive/crypt"
)

// UnixCrypt verifies traditional 13-character Unix crypt password hashes
type UnixCrypt struct{}

// NewUnixCrypt creates a new Unix crypt verifier
func NewUnixCrypt() *UnixCrypt {
	return &UnixCrypt{}
}

// VerifyPassword checks a password against its Unix crypt hash. The salt
// is the first two characters of the stored hash.
func (v *UnixCrypt) VerifyPassword(hashedPassword, password string) error {
	if len(hashedPassword) < 2 {
		return errors.New("invalid hash: too short")
	}
	salt := hashedPassword[:2]

	computed, err := crypt.Crypt(password, salt)
	if err != nil {
		return err
	}

	if computed != hashedPassword {
		return ErrInvalidCredentials
	}
	return nil
}
