package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "1234567890ABCDEF1234567890ABCDEF"

// Helper to redirect the session store into a temp directory for one test
func setupTestDir(t *testing.T) {
	t.Helper()

	originalPath := storePath
	storePath = filepath.Join(t.TempDir(), "session.json")

	t.Cleanup(func() {
		storePath = originalPath
	})
}

func TestSaveAndLoadSession(t *testing.T) {
	setupTestDir(t)

	session := &Session{
		Login:        "jankowalski",
		AccessToken:  "access-token-value",
		RefreshToken: "refresh-token-value",
		Levels:       []string{"CLIENT", "STAFF"},
		ActiveLevel:  "STAFF",
		Expiration:   time.Now().Add(1 * time.Hour).Truncate(time.Second),
		VersionTags:  map[string]string{"sector/s-1": "v1"},
	}

	// 1. Save
	if err := SaveSession(session, testSecret); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// 2. File should exist
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		t.Fatal("Session file was not created")
	}

	// 3. Load
	loaded, err := LoadSession(testSecret)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}

	// 4. Verify fields
	if loaded.Login != session.Login {
		t.Errorf("Login mismatch. Got %s, want %s", loaded.Login, session.Login)
	}
	if loaded.AccessToken != session.AccessToken || loaded.RefreshToken != session.RefreshToken {
		t.Error("Token pair mismatch after reload")
	}
	if loaded.ActiveLevel != "STAFF" {
		t.Errorf("ActiveLevel mismatch. Got %s, want STAFF", loaded.ActiveLevel)
	}
	if !loaded.Expiration.Equal(session.Expiration) {
		t.Errorf("Expiration mismatch. Got %v, want %v", loaded.Expiration, session.Expiration)
	}
	if loaded.VersionTags["sector/s-1"] != "v1" {
		t.Error("Version tags were not persisted")
	}
}

func TestLoadSessionWithWrongSecret(t *testing.T) {
	setupTestDir(t)

	session := &Session{Login: "jankowalski", AccessToken: "a", RefreshToken: "r"}
	if err := SaveSession(session, testSecret); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	_, err := LoadSession("WRONG_SECRET_WRONG_SECRET_WRONG!")
	if err == nil {
		t.Error("Expected error when loading with the wrong secret, got nil")
	}
}

func TestLoadSessionMissingFile(t *testing.T) {
	setupTestDir(t)

	_, err := LoadSession(testSecret)
	if err != ErrNoSession {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestCorruptSessionFile(t *testing.T) {
	setupTestDir(t)

	os.MkdirAll(filepath.Dir(storePath), 0700)
	os.WriteFile(storePath, []byte("{ invalid json..."), 0600)

	_, err := LoadSession(testSecret)
	if err == nil {
		t.Error("Expected error when loading corrupt session file, got nil")
	}
}

func TestClearSession(t *testing.T) {
	setupTestDir(t)

	session := &Session{Login: "jankowalski"}
	if err := SaveSession(session, testSecret); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if !HasSession() {
		t.Fatal("HasSession should report true after save")
	}

	if err := ClearSession(); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if HasSession() {
		t.Error("HasSession should report false after clear")
	}

	// Clearing again must be a no-op, not an error
	if err := ClearSession(); err != nil {
		t.Errorf("Second ClearSession failed: %v", err)
	}
}
