package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore is the single credential slot: one opaque token, replaced on
// login, deleted on logout. Load must be cheap enough to call on every
// outgoing request.
type TokenStore interface {
	Load() (string, bool)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a file, the CLI analogue of browser
// local storage. The file holds nothing but the token.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath places the slot under the user config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "storefront", "token"), nil
}

func (s *FileTokenStore) Load() (string, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(raw))
	return token, token != ""
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryTokenStore is the in-process variant used by tests and the demo
// command, where persisting a throwaway token would only leak state between
// runs.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Token adapts the slot to the transport client's TokenSource, so requests
// always see the credential slot's current value.
func (s *FileTokenStore) Token() (string, bool) { return s.Load() }

func (s *MemoryTokenStore) Token() (string, bool) { return s.Load() }
