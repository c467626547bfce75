package auth

import (
	"crypto/subtle"
	"strings"
)

// PasswordVerifier checks a presented password against a stored secret
type PasswordVerifier interface {
	// VerifyPassword returns nil when password matches the stored secret
	VerifyPassword(stored, password string) error
}

// MultiVerifier detects the stored secret's format and delegates to the
// matching verifier. The bootstrap user file ships plaintext passwords,
// but operators may pre-hash records with Unix crypt or argon2id.
type MultiVerifier struct {
	unixCrypt *UnixCrypt
	argon2id  *Argon2ID
}

// NewMultiVerifier creates a verifier supporting plaintext, Unix crypt
// and argon2id stored secrets.
func NewMultiVerifier() *MultiVerifier {
	return &MultiVerifier{
		unixCrypt: NewUnixCrypt(),
		argon2id:  NewArgon2ID(),
	}
}

// VerifyPassword implements PasswordVerifier
func (v *MultiVerifier) VerifyPassword(stored, password string) error {
	if stored == "" {
		return ErrInvalidCredentials
	}

	if strings.HasPrefix(stored, "$argon2id$") {
		return v.argon2id.VerifyPassword(stored, password)
	}
	if len(stored) == 13 && !strings.Contains(stored, "$") {
		// Unix crypt format: 13 characters, no $ symbols
		return v.unixCrypt.VerifyPassword(stored, password)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
