package auth

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crastinus/hlfun-auth-srv/pkg/geoip"
	"github.com/crastinus/hlfun-auth-srv/pkg/users"
)

var (
	usIP = netip.MustParseAddr("12.1.2.3")
	deIP = netip.MustParseAddr("85.88.3.4")
)

func testEngine(t *testing.T) (*Engine, *users.Store) {
	t.Helper()

	geo, err := geoip.NewIndex(map[string][]netip.Prefix{
		"US": {netip.MustParsePrefix("12.0.0.0/8")},
		"DE": {netip.MustParsePrefix("85.88.0.0/16")},
	})
	require.NoError(t, err)

	store, err := users.NewStoreFromSource(users.NewMemorySource(
		users.User{Login: "alice", Password: "p1", Name: "Alice", Country: "US"},
		users.User{Login: "root", Password: "secret", Country: "US", IsAdmin: true},
		users.User{Login: "marco", Password: "p2", Country: "Atlantis"},
	))
	require.NoError(t, err)

	return NewEngine(store, geo, []byte("0123456789abcdef0123456789abcdef")), store
}

func TestAuthenticate(t *testing.T) {
	engine, store := testEngine(t)

	t.Run("success issues verifiable token", func(t *testing.T) {
		token, err := engine.Authenticate("alice", "p1", "n1", usIP)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		login, err := engine.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", login)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := engine.Authenticate("alice", "nope", "n1", usIP)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := engine.Authenticate("ghost", "p1", "n1", usIP)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong country", func(t *testing.T) {
		_, err := engine.Authenticate("alice", "p1", "n2", deIP)
		assert.ErrorIs(t, err, ErrGeoDenied)
	})

	t.Run("nonce stamped even when geofence fails", func(t *testing.T) {
		_, err := engine.Authenticate("alice", "p1", "rotated", deIP)
		require.ErrorIs(t, err, ErrGeoDenied)

		u, ok := store.Get("alice")
		require.True(t, ok)
		assert.Equal(t, "rotated", u.Nonce)
	})

	t.Run("unindexed country", func(t *testing.T) {
		_, err := engine.Authenticate("marco", "p2", "n1", usIP)
		assert.ErrorIs(t, err, ErrGeoDenied)
	})

	t.Run("banned account", func(t *testing.T) {
		_, err := engine.BanUser("alice")
		require.NoError(t, err)
		defer engine.UnbanUser("alice")

		_, err = engine.Authenticate("alice", "p1", "n1", usIP)
		assert.ErrorIs(t, err, ErrBanned)
	})
}

func TestVerifyToken(t *testing.T) {
	engine, _ := testEngine(t)

	token, err := engine.Authenticate("alice", "p1", "n1", usIP)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		login, err := engine.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", login)
	})

	t.Run("tampered signature", func(t *testing.T) {
		last := token[len(token)-1]
		flip := byte('A')
		if last == 'A' {
			flip = 'B'
		}
		_, err := engine.VerifyToken(token[:len(token)-1] + string(flip))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := engine.VerifyToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("re-authentication keeps old tokens valid", func(t *testing.T) {
		// The embedded nonce is not re-checked against the live record.
		_, err := engine.Authenticate("alice", "p1", "newer-nonce", usIP)
		require.NoError(t, err)

		login, err := engine.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", login)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewEngine(users.NewStore(), nil, []byte("another-key-entirely-0123456789a"))
		_, err := other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRegister(t *testing.T) {
	engine, store := testEngine(t)

	require.NoError(t, engine.Register("bob", "pw", "Bob", "555", "DE"))
	u, ok := store.Get("bob")
	require.True(t, ok)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.IsBanned)
	assert.Empty(t, u.Nonce)

	assert.ErrorIs(t, engine.Register("bob", "x", "", "", ""), users.ErrUserExists)
}

func TestGetUser(t *testing.T) {
	engine, _ := testEngine(t)

	t.Run("success", func(t *testing.T) {
		u, err := engine.GetUser("alice", usIP)
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.Name)
	})

	t.Run("wrong country", func(t *testing.T) {
		_, err := engine.GetUser("alice", deIP)
		assert.ErrorIs(t, err, ErrGeoDenied)
	})

	t.Run("banned", func(t *testing.T) {
		_, err := engine.BanUser("alice")
		require.NoError(t, err)
		defer engine.UnbanUser("alice")

		_, err = engine.GetUser("alice", usIP)
		assert.ErrorIs(t, err, ErrBanned)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := engine.GetUser("ghost", usIP)
		assert.ErrorIs(t, err, users.ErrUserNotFound)
	})
}

func TestEditUser(t *testing.T) {
	engine, store := testEngine(t)
	str := func(s string) *string { return &s }
	boolp := func(b bool) *bool { return &b }

	t.Run("partial update", func(t *testing.T) {
		require.NoError(t, engine.EditUser("alice", EditFields{Name: str("Alicia"), Phone: str("911")}))
		u, _ := store.Get("alice")
		assert.Equal(t, "Alicia", u.Name)
		assert.Equal(t, "911", u.Phone)
		assert.Equal(t, "p1", u.Password) // untouched
	})

	t.Run("no admin promotion through edit", func(t *testing.T) {
		require.NoError(t, engine.EditUser("alice", EditFields{IsAdmin: boolp(true)}))
		u, _ := store.Get("alice")
		assert.False(t, u.IsAdmin)
	})

	t.Run("admin may lower own flag", func(t *testing.T) {
		require.NoError(t, engine.EditUser("root", EditFields{IsAdmin: boolp(false)}))
		u, _ := store.Get("root")
		assert.False(t, u.IsAdmin)
	})

	t.Run("banned rejects edits", func(t *testing.T) {
		_, err := engine.BanUser("alice")
		require.NoError(t, err)
		defer engine.UnbanUser("alice")

		assert.ErrorIs(t, engine.EditUser("alice", EditFields{Name: str("x")}), ErrBanned)
	})

	t.Run("unknown login", func(t *testing.T) {
		assert.ErrorIs(t, engine.EditUser("ghost", EditFields{}), users.ErrUserNotFound)
	})
}

func TestBanUnbanUser(t *testing.T) {
	engine, _ := testEngine(t)

	changed, err := engine.BanUser("alice")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = engine.BanUser("alice")
	require.NoError(t, err)
	assert.False(t, changed, "second ban should report no change")

	changed, err = engine.UnbanUser("alice")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = engine.UnbanUser("alice")
	require.NoError(t, err)
	assert.False(t, changed, "second unban should report no change")

	_, err = engine.BanUser("ghost")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestIsAdmin(t *testing.T) {
	engine, _ := testEngine(t)

	assert.True(t, engine.IsAdmin("root", usIP))
	assert.False(t, engine.IsAdmin("root", deIP), "admin outside own geofence")
	assert.False(t, engine.IsAdmin("alice", usIP), "non-admin")
	assert.False(t, engine.IsAdmin("ghost", usIP), "unknown login")
}

func TestTokenHasNoExpiry(t *testing.T) {
	token, err := signToken([]byte("k"), "alice", "n")
	require.NoError(t, err)

	// Payload is the middle segment; it must not carry exp/iat/nbf.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	claims, err := parseToken([]byte("k"), token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
	assert.Nil(t, claims.IssuedAt)
	assert.Nil(t, claims.NotBefore)
	assert.Equal(t, "n", claims.Nonce)
}
