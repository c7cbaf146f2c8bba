package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	service = "sundayschool-cli"
)

// ErrNotFound is returned when no token is stored for a backend
var ErrNotFound = errors.New("not authenticated. Please run 'ssadmin login' first")

// TokenStore persists bearer tokens per backend base URL.
// This allows us to swap the keyring out in tests.
type TokenStore interface {
	SaveToken(baseURL, token string) error
	LoadToken(baseURL string) (string, error)
	DeleteToken(baseURL string) error
}

// getKeyringKey returns a unique key for storing tokens per backend
func getKeyringKey(baseURL string) string {
	return fmt.Sprintf("token-%s", baseURL)
}

// Keyring stores tokens in the OS keychain/credential manager
type Keyring struct {
	Service string
}

// NewKeyring returns a keyring-backed store under the default service name
func NewKeyring() *Keyring {
	return &Keyring{Service: service}
}

// SaveToken persists the token securely in the OS keychain/credential manager
func (k *Keyring) SaveToken(baseURL, token string) error {
	if err := keyring.Set(k.Service, getKeyringKey(baseURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func (k *Keyring) LoadToken(baseURL string) (string, error) {
	token, err := keyring.Get(k.Service, getKeyringKey(baseURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func (k *Keyring) DeleteToken(baseURL string) error {
	if err := keyring.Delete(k.Service, getKeyringKey(baseURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Memory is an in-process token store. Tokens vanish with the process.
type Memory struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]string)}
}

func (m *Memory) SaveToken(baseURL, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[baseURL] = token
	return nil
}

func (m *Memory) LoadToken(baseURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[baseURL]
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (m *Memory) DeleteToken(baseURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, baseURL)
	return nil
}
