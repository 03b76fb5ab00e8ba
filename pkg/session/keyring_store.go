package session

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "instapi"
	keyringPrefix  = "session_"
)

// KeyringStore keeps session blobs in the system keychain.
type KeyringStore struct{}

// NewKeyringStore fails when the keychain cannot be written.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Get(c Credentials) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	data, err := keyring.Get(keyringService, keyringPrefix+c.Key())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	blob, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt keyring entry: %w", err)
	}
	return blob, nil
}

func (k *KeyringStore) Put(c Credentials, blob []byte) error {
	if err := c.validate(); err != nil {
		return err
	}
	if err := keyring.Set(keyringService, keyringPrefix+c.Key(), base64.StdEncoding.EncodeToString(blob)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Delete(c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	err := keyring.Delete(keyringService, keyringPrefix+c.Key())
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
