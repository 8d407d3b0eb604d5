package internal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

var storePath = filepath.Join(os.Getenv("HOME"), ".parkctl", "session.json")

type sessionFile struct {
	Session string `json:"session"` // base64(AES-GCM(json(Session)))
}

// SaveSession encrypts and persists the session so it survives between runs.
func SaveSession(s *Session, key string) error {
	if err := os.MkdirAll(filepath.Dir(storePath), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	enc, err := Encrypt(plain, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	out, err := json.MarshalIndent(sessionFile{
		Session: base64.StdEncoding.EncodeToString(enc),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(storePath, out, 0600)
}

// LoadSession reads and decrypts the persisted session.
// Returns ErrNoSession when no session file exists.
func LoadSession(key string) (*Session, error) {
	b, err := os.ReadFile(storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session store: %w", err)
	}

	var file sessionFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("failed to parse session store: %w", err)
	}

	enc, err := base64.StdEncoding.DecodeString(file.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session store: %w", err)
	}
	plain, err := Decrypt(enc, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session (wrong secret?): %w", err)
	}

	s := &Session{}
	if err := json.Unmarshal(plain, s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

// ClearSession removes the persisted session entirely.
func ClearSession() error {
	err := os.Remove(storePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasSession reports whether a session file exists, without decrypting it.
func HasSession() bool {
	_, err := os.Stat(storePath)
	return err == nil
}
