// Package auth layers credential checks, bearer tokens and geofencing
// over the user store. Every method completes in bounded time: nothing
// here does I/O or blocks beyond store lock acquisition.
package auth

import (
	"errors"
	"net/netip"

	"github.com/crastinus/hlfun-auth-srv/pkg/geoip"
	"github.com/crastinus/hlfun-auth-srv/pkg/users"
)

// Engine is the access-control engine. It is stateless apart from the
// shared stores it is constructed with and is safe for concurrent use.
type Engine struct {
	users    *users.Store
	geo      *geoip.Index
	key      []byte
	verifier PasswordVerifier
}

// NewEngine creates an Engine signing tokens with the given HS256 key
func NewEngine(store *users.Store, geo *geoip.Index, key []byte) *Engine {
	return &Engine{
		users:    store,
		geo:      geo,
		key:      key,
		verifier: NewMultiVerifier(),
	}
}

// Authenticate verifies credentials and issues a bearer token. The
// caller-supplied nonce is stamped onto the live record before the
// geofence check runs, so a geofence-rejected attempt still rotates
// the stored nonce.
func (e *Engine) Authenticate(login, password, nonce string, ip netip.Addr) (string, error) {
	var country string

	err := e.users.Update(login, func(u *users.User) error {
		if err := e.verifier.VerifyPassword(u.Password, password); err != nil {
			return ErrInvalidCredentials
		}
		if u.IsBanned {
			return ErrBanned
		}
		u.Nonce = nonce
		country = u.Country
		return nil
	})
	if errors.Is(err, users.ErrUserNotFound) {
		// Unknown logins fail the same way wrong passwords do
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !e.geo.Contains(country, ip) {
		return "", ErrGeoDenied
	}

	return signToken(e.key, login, nonce)
}

// VerifyToken returns the login a token was issued for. The embedded
// nonce is deliberately not compared against the live record, so
// re-authentication does not invalidate previously issued tokens.
func (e *Engine) VerifyToken(token string) (string, error) {
	claims, err := parseToken(e.key, token)
	if err != nil {
		return "", err
	}
	if !e.users.Exists(claims.Login) {
		return "", ErrInvalidToken
	}
	return claims.Login, nil
}

// Geofence reports whether ip falls inside the prefixes registered for
// the user's country. Unknown login or unindexed country both fail.
func (e *Engine) Geofence(login string, ip netip.Addr) bool {
	u, ok := e.users.Get(login)
	if !ok {
		return false
	}
	return e.geo.Contains(u.Country, ip)
}

// IsAdmin reports whether login is an administrator connecting from an
// IP that passes its own geofence.
func (e *Engine) IsAdmin(login string, ip netip.Addr) bool {
	u, ok := e.users.Get(login)
	if !ok || !u.IsAdmin {
		return false
	}
	return e.geo.Contains(u.Country, ip)
}

// Register creates a new non-admin account
func (e *Engine) Register(login, password, name, phone, country string) error {
	return e.users.Create(users.User{
		Login:    login,
		Password: password,
		Name:     name,
		Phone:    phone,
		Country:  country,
	})
}

// GetUser returns a snapshot of the account, provided it is not banned
// and ip passes the account's geofence.
func (e *Engine) GetUser(login string, ip netip.Addr) (users.User, error) {
	u, ok := e.users.Get(login)
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	if u.IsBanned {
		return users.User{}, ErrBanned
	}
	if !e.geo.Contains(u.Country, ip) {
		return users.User{}, ErrGeoDenied
	}
	return u, nil
}

// EditFields is a partial update; nil fields are left untouched.
type EditFields struct {
	Name     *string
	Password *string
	Phone    *string
	Country  *string
	IsAdmin  *bool
}

// EditUser applies a partial update to an account. The admin flag is
// only ever rewritten on a record that is already admin: there is no
// promotion path through edits. Banned accounts reject edits.
func (e *Engine) EditUser(login string, fields EditFields) error {
	return e.users.Update(login, func(u *users.User) error {
		if u.IsBanned {
			return ErrBanned
		}
		if fields.IsAdmin != nil && u.IsAdmin {
			u.IsAdmin = *fields.IsAdmin
		}
		if fields.Country != nil {
			u.Country = *fields.Country
		}
		if fields.Password != nil {
			u.Password = *fields.Password
		}
		if fields.Name != nil {
			u.Name = *fields.Name
		}
		if fields.Phone != nil {
			u.Phone = *fields.Phone
		}
		return nil
	})
}

// BanUser marks an account banned. The bool reports whether the state
// actually changed; banning twice is not an error.
func (e *Engine) BanUser(login string) (bool, error) {
	changed := false
	err := e.users.Update(login, func(u *users.User) error {
		if !u.IsBanned {
			u.IsBanned = true
			changed = true
		}
		return nil
	})
	return changed, err
}

// UnbanUser clears the banned mark, reporting whether state changed
func (e *Engine) UnbanUser(login string) (bool, error) {
	changed := false
	err := e.users.Update(login, func(u *users.User) error {
		if u.IsBanned {
			u.IsBanned = false
			changed = true
		}
		return nil
	})
	return changed, err
}
