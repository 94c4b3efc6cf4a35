package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
)

// Identity is who the credential belongs to.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Credential is the bearer token plus the identity it was issued for.
type Credential struct {
	Token    *oauth2.Token `json:"token"`
	Identity Identity      `json:"identity"`
}

// FileStore keeps the user's session in a local JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns the stored credential, or an error if none was saved.
func (s *FileStore) Load() (*Credential, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cred := &Credential{}
	if err := json.NewDecoder(f).Decode(cred); err != nil {
		return nil, fmt.Errorf("auth: decode %s: %w", s.Path, err)
	}
	if cred.Token == nil || cred.Token.AccessToken == "" {
		return nil, fmt.Errorf("auth: %s holds no access token", s.Path)
	}
	return cred, nil
}

// Save writes the credential with owner-only permissions.
func (s *FileStore) Save(cred *Credential) error {
	log.Printf("Saving credential file to: %s", s.Path)
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("auth: unable to cache credential: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(cred)
}

// Clear removes the stored credential. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth: clear %s: %w", s.Path, err)
	}
	return nil
}
