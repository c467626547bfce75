package users

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsersFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestFileSourceLoadUsers(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeUsersFile(t, fs, "/data/users.jsonl",
		`{"login":"alice","password":"p1","name":"Alice","phone":"123","country":"US"}
{"login":"root","password":"p2","name":"Root","phone":"0","country":"US","is_admin":true}

{"login":"bob","password":"p3","name":"Bob","phone":"7","country":"DE"}
`)

	source := NewFileSource(fs, "/data/users.jsonl")
	loaded, err := source.LoadUsers()
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	assert.Equal(t, "alice", loaded[0].Login)
	assert.Equal(t, "p1", loaded[0].Password)
	assert.False(t, loaded[0].IsAdmin)
	assert.True(t, loaded[1].IsAdmin)

	// Runtime-only state starts zeroed regardless of the file contents.
	for _, u := range loaded {
		assert.False(t, u.IsBanned)
		assert.Empty(t, u.Nonce)
	}
}

func TestFileSourceErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(fs, "/nope.jsonl").LoadUsers()
		assert.Error(t, err)
	})

	t.Run("malformed line", func(t *testing.T) {
		writeUsersFile(t, fs, "/bad.jsonl", `{"login":"a","password":"p"}
{not json}`)
		_, err := NewFileSource(fs, "/bad.jsonl").LoadUsers()
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("empty login", func(t *testing.T) {
		writeUsersFile(t, fs, "/empty.jsonl", `{"password":"p"}`)
		_, err := NewFileSource(fs, "/empty.jsonl").LoadUsers()
		assert.ErrorContains(t, err, "empty login")
	})
}

func TestNewStoreFromSource(t *testing.T) {
	source := NewMemorySource(
		User{Login: "alice", Country: "US"},
		User{Login: "bob", Country: "DE"},
	)
	store, err := NewStoreFromSource(source)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Exists("alice"))
}
