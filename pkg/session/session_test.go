package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"instapi/pkg/config"
)

var alice = Credentials{Username: "alice", Password: "secret"}

func TestCredentialsKey(t *testing.T) {
	assert.Equal(t, "6f622058968bb90757e6c6ed79e5df81", alice.Key())
	assert.NotEqual(t, alice.Key(), Credentials{Username: "alice", Password: "other"}.Key())
	assert.Equal(t, alice.Key(), Credentials{Username: "alice", Password: "secret"}.Key())
}

func TestDiscoverCacheDir(t *testing.T) {
	t.Run("walks up to an existing directory", func(t *testing.T) {
		root := t.TempDir()
		existing := filepath.Join(root, CacheDirName)
		require.NoError(t, os.Mkdir(existing, 0700))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))

		dir, err := DiscoverCacheDir(nested)
		require.NoError(t, err)
		assert.Equal(t, existing, dir)
	})

	t.Run("defaults to the start directory", func(t *testing.T) {
		start := t.TempDir()
		dir, err := DiscoverCacheDir(start)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(start, CacheDirName), dir)
		assert.DirExists(t, dir)
	})
}

func TestFileStore(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
	}{
		{"plain", ""},
		{"encrypted", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewFileStore(t.TempDir(), tt.passphrase)
			require.NoError(t, err)

			_, err = store.Get(alice)
			assert.ErrorIs(t, err, ErrNotFound)

			blob := []byte(`{"cookies":[{"name":"sessionid","value":"x"}]}`)
			require.NoError(t, store.Put(alice, blob))

			got, err := store.Get(alice)
			require.NoError(t, err)
			assert.Equal(t, blob, got)

			onDisk, err := os.ReadFile(filepath.Join(store.Dir(), alice.Key()))
			require.NoError(t, err)
			if tt.passphrase == "" {
				assert.Equal(t, blob, onDisk)
			} else {
				assert.NotContains(t, string(onDisk), "sessionid")
			}

			require.NoError(t, store.Delete(alice))
			assert.ErrorIs(t, store.Delete(alice), ErrNotFound)
		})
	}
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "one")
	require.NoError(t, err)
	require.NoError(t, store.Put(alice, []byte("blob")))

	other, err := NewFileStore(dir, "two")
	require.NoError(t, err)
	_, err = other.Get(alice)
	assert.ErrorContains(t, err, "decrypt")
}

func TestFileStoreRequiresCredentials(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Put(Credentials{Username: "alice"}, nil), ErrInvalidCredentials)
	_, err = store.Get(Credentials{Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Get(alice)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(alice, []byte{0, 1, 2, 255}))
	got, err := store.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, got)

	require.NoError(t, store.Delete(alice))
	assert.ErrorIs(t, store.Delete(alice), ErrNotFound)
}

func TestManagerFallback(t *testing.T) {
	primary := NewMockStore()
	secondary := NewMockStore()
	m := NewManager(primary, secondary)

	require.NoError(t, secondary.Put(alice, []byte("old")))
	got, err := m.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got)

	primary.PutError = errors.New("keychain locked")
	require.NoError(t, m.Put(alice, []byte("new")))
	assert.Equal(t, 0, primary.Len())
	got, err = secondary.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	secondary.PutError = errors.New("disk full")
	assert.ErrorContains(t, m.Put(alice, []byte("x")), "disk full")

	require.NoError(t, m.Delete(alice))
	_, err = m.Get(alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFromConfig(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	store, err := FromConfig(config.SessionConfig{Backend: config.BackendFile, CacheDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = FromConfig(config.SessionConfig{Backend: config.BackendKeyring, CacheDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &Manager{}, store)

	store, err = FromConfig(config.SessionConfig{Backend: config.BackendNone})
	require.NoError(t, err)
	require.NoError(t, store.Put(alice, []byte("x")))
	_, err = store.Get(alice)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FromConfig(config.SessionConfig{Backend: "floppy"})
	assert.Error(t, err)
}
