package session

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"

	"instapi/pkg/config"
)

// Errors
var (
	ErrNotFound           = errors.New("session not found")
	ErrInvalidCredentials = errors.New("username and password are required")
)

// Credentials identify an account. The pair, not the username alone, keys
// the cache so that a changed password never reuses an old session.
type Credentials struct {
	Username string
	Password string
}

// Key is the hex md5 of "username:password".
func (c Credentials) Key() string {
	sum := md5.Sum([]byte(c.Username + ":" + c.Password))
	return hex.EncodeToString(sum[:])
}

func (c Credentials) validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// Store persists opaque session blobs keyed by credentials.
type Store interface {
	// Get returns the stored blob or ErrNotFound
	Get(c Credentials) ([]byte, error)

	// Put saves blob, replacing any previous one
	Put(c Credentials, blob []byte) error

	// Delete removes the blob; a missing one is ErrNotFound
	Delete(c Credentials) error
}

// Manager chains stores: reads come from the first store holding the
// session, writes go to the first store that accepts them.
type Manager struct {
	stores []Store
}

// NewManager creates a manager over stores in priority order.
func NewManager(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Get returns the blob from the first store that has it
func (m *Manager) Get(c Credentials) ([]byte, error) {
	for _, s := range m.stores {
		if blob, err := s.Get(c); err == nil {
			return blob, nil
		}
	}
	return nil, ErrNotFound
}

// Put saves blob using the first available store
func (m *Manager) Put(c Credentials, blob []byte) error {
	var lastErr error
	for _, s := range m.stores {
		err := s.Put(c, blob)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return errors.New("no available session stores")
}

// Delete removes the blob from every store
func (m *Manager) Delete(c Credentials) error {
	deleted := false
	for _, s := range m.stores {
		if err := s.Delete(c); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Disabled is a store that never remembers anything.
type Disabled struct{}

func (Disabled) Get(Credentials) ([]byte, error) { return nil, ErrNotFound }
func (Disabled) Put(Credentials, []byte) error   { return nil }
func (Disabled) Delete(Credentials) error        { return ErrNotFound }

// FromConfig builds the store selected by cfg.Backend. The keyring backend
// falls back to the file store when the system keychain is unavailable.
func FromConfig(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return Disabled{}, nil
	case config.BackendKeyring:
		file, err := NewFileStore(cfg.CacheDir, cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		keyringStore, err := NewKeyringStore()
		if err != nil {
			return file, nil
		}
		return NewManager(keyringStore, file), nil
	case config.BackendFile, "":
		return NewFileStore(cfg.CacheDir, cfg.Passphrase)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
