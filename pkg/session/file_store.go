package session

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"instapi/pkg/storage"
)

// CacheDirName is the hidden directory searched for by DiscoverCacheDir.
const CacheDirName = ".instapi_cache"

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// DiscoverCacheDir returns the first CacheDirName found in start or one of
// its parents, or start/CacheDirName when there is none. The directory is
// created if needed.
func DiscoverCacheDir(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(abs, CacheDirName)
	for p := abs; ; p = filepath.Dir(p) {
		candidate := filepath.Join(p, CacheDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			dir = candidate
			break
		}
		if filepath.Dir(p) == p {
			break
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

// FileStore keeps one file per credential pair. With a passphrase the blobs
// are sealed with AES-GCM under a PBKDF2-derived key.
type FileStore struct {
	dir        string
	passphrase string
	mu         sync.RWMutex
}

// envelope is the on-disk layout of an encrypted blob
type envelope struct {
	Version   int    `json:"version"`
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

// NewFileStore creates a store in dir, discovered from the working directory
// when dir is empty.
func NewFileStore(dir, passphrase string) (*FileStore, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if dir, err = DiscoverCacheDir(cwd); err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir, passphrase: passphrase}, nil
}

// Dir returns the directory holding the session files.
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(c Credentials) string {
	return filepath.Join(f.dir, c.Key())
}

// Get reads the blob for c
func (f *FileStore) Get(c Credentials) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	content, err := os.ReadFile(f.path(c))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if f.passphrase == "" {
		return content, nil
	}
	return f.open(content)
}

// Put writes the blob for c atomically
func (f *FileStore) Put(c Credentials, blob []byte) error {
	if err := c.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	content := blob
	if f.passphrase != "" {
		var err error
		if content, err = f.seal(blob); err != nil {
			return err
		}
	}
	return storage.WriteAtomic(f.path(c), bytes.NewReader(content), 0600)
}

// Delete removes the blob for c
func (f *FileStore) Delete(c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(c)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (f *FileStore) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(f.passphrase), salt, iterations, keySize, sha256.New)
	encrypted, err := encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt session: %w", err)
	}
	return json.Marshal(envelope{
		Version:   1,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(encrypted),
	})
}

func (f *FileStore) open(content []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(content, &env); err != nil || env.Version == 0 {
		return nil, errors.New("session file is not encrypted")
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}
	key := pbkdf2.Key([]byte(f.passphrase), salt, iterations, keySize, sha256.New)
	plaintext, err := decrypt(sealed, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	return plaintext, nil
}

// encrypt encrypts data using AES-GCM
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt decrypts data using AES-GCM
func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
