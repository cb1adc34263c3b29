package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smartlocker-web/internal/models"
)

// sessionFile is the on-disk layout; the three fields are always written in
// one file replace.
type sessionFile struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *models.User `json:"user_data"`
	SavedAt      time.Time    `json:"saved_at"`
	APIURL       string       `json:"api_url,omitempty"`
}

// FileStore keeps the session in a JSON file readable only by the owner.
type FileStore struct {
	path   string
	apiURL string
}

// DefaultSessionPath is ~/.config/smartlocker/session.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "smartlocker", "session.json"), nil
}

// NewFileStore stores the session at path. apiURL is recorded next to the
// tokens so a later run can tell which backend issued them.
func NewFileStore(path, apiURL string) *FileStore {
	return &FileStore{path: path, apiURL: apiURL}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context) (*models.Session, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", f.path, err)
	}

	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, nil
	}
	sess := &models.Session{AccessToken: sf.AccessToken, RefreshToken: sf.RefreshToken, User: sf.User}
	if sess.Validate() != nil {
		return nil, nil
	}
	return sess, nil
}

func (f *FileStore) Save(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	b, err := json.MarshalIndent(sessionFile{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         s.User,
		SavedAt:      time.Now().UTC(),
		APIURL:       f.apiURL,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file %s: %w", f.path, err)
	}
	return nil
}
