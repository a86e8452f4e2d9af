package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists the bearer credential between runs.
type Store interface {
	Token() string
	Save(token string, expiresAt time.Time) error
	Clear() error
}

type record struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileStore keeps the credential in a JSON file readable only by its owner.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// DefaultPath is the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "appointmed", "session.json"), nil
}

// Token returns the stored token, or "" when none is stored or it expired.
func (s *FileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return ""
	}
	if !rec.ExpiresAt.IsZero() && !s.now().Before(rec.ExpiresAt) {
		return ""
	}
	return rec.Token
}

func (s *FileStore) Save(token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	b, err := json.Marshal(record{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryStore keeps the credential for the life of the process.
type MemoryStore struct {
	mu  sync.RWMutex
	rec record
}

func (m *MemoryStore) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.rec.ExpiresAt.IsZero() && !time.Now().Before(m.rec.ExpiresAt) {
		return ""
	}
	return m.rec.Token
}

func (m *MemoryStore) Save(token string, expiresAt time.Time) error {
	m.mu.Lock()
	m.rec = record{Token: token, ExpiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.rec = record{}
	m.mu.Unlock()
	return nil
}
