package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/filex"
)

// SessionStore persists the session token between CLI runs. An empty path
// disables persistence.
type SessionStore struct {
	path string
}

type sessionFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load returns the saved token, or "" when there is none.
func (s *SessionStore) Load() (string, error) {
	if s.path == "" {
		return "", nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	return sf.Token, nil
}

func (s *SessionStore) Save(token string) error {
	if s.path == "" {
		return nil
	}

	data, err := json.Marshal(sessionFile{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return filex.WritePrivate(s.path, data)
}

func (s *SessionStore) Clear() error {
	if s.path == "" {
		return nil
	}
	return filex.RemoveIfExists(s.path)
}
