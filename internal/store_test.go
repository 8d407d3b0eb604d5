package internal

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	setupTestDir(t)
	return NewSessionStore(testSecret)
}

func TestStoreInitAndCurrent(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.Current(); ok {
		t.Fatal("Fresh store should have no session")
	}

	err := store.Init(Session{
		Login:        "jankowalski",
		AccessToken:  "acc-1",
		RefreshToken: "ref-1",
		Levels:       []string{"CLIENT", "ADMIN"},
		ActiveLevel:  "CLIENT",
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	s, ok := store.Current()
	if !ok {
		t.Fatal("Expected a session after Init")
	}
	if s.Login != "jankowalski" || s.AccessToken != "acc-1" {
		t.Error("Session fields not stored correctly")
	}

	// Current returns a copy; mutating it must not leak back.
	s.Levels[0] = "MUTATED"
	s.VersionTags["x"] = "y"
	again, _ := store.Current()
	if again.Levels[0] != "CLIENT" || len(again.VersionTags) != 0 {
		t.Error("Current() must return an isolated copy")
	}
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	store := newTestStore(t)

	if err := store.Init(Session{Login: "jankowalski", AccessToken: "acc-1", RefreshToken: "ref-1"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// A second store over the same file sees the session (page-reload analogue).
	reopened, err := OpenSessionStore(testSecret)
	if err != nil {
		t.Fatalf("OpenSessionStore failed: %v", err)
	}
	s, ok := reopened.Current()
	if !ok || s.AccessToken != "acc-1" {
		t.Error("Session did not survive reopen")
	}
}

func TestReplacePairIsAtomic(t *testing.T) {
	store := newTestStore(t)

	if err := store.Init(Session{Login: "jankowalski", AccessToken: "acc-0", RefreshToken: "ref-0"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Swap pairs while readers hammer Current(). A reader must never see
	// an access token paired with a refresh token from a different swap.
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			s, ok := store.Current()
			if !ok {
				continue
			}
			accN := strings.TrimPrefix(s.AccessToken, "acc-")
			refN := strings.TrimPrefix(s.RefreshToken, "ref-")
			if accN != refN {
				t.Errorf("Torn pair observed: %s / %s", s.AccessToken, s.RefreshToken)
				return
			}
		}
	}()

	for i := 1; i <= 50; i++ {
		pair := TokenPair{
			AccessToken:  fmt.Sprintf("acc-%d", i),
			RefreshToken: fmt.Sprintf("ref-%d", i),
		}
		if err := store.ReplacePair(pair); err != nil {
			t.Fatalf("ReplacePair failed: %v", err)
		}
	}

	close(stop)
	wg.Wait()
}

func TestReplacePairWithoutSession(t *testing.T) {
	store := newTestStore(t)

	err := store.ReplacePair(TokenPair{AccessToken: "a", RefreshToken: "r"})
	if err != ErrNoSession {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestSwitchLevel(t *testing.T) {
	store := newTestStore(t)

	if err := store.Init(Session{
		Login:       "jankowalski",
		AccessToken: "acc",
		Levels:      []string{"CLIENT", "STAFF"},
		ActiveLevel: "CLIENT",
	}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// 1. Granted level: switch succeeds and persists
	if err := store.SwitchLevel("STAFF"); err != nil {
		t.Fatalf("SwitchLevel failed: %v", err)
	}
	s, _ := store.Current()
	if s.ActiveLevel != "STAFF" {
		t.Errorf("ActiveLevel = %s, want STAFF", s.ActiveLevel)
	}

	// 2. Level not granted: rejected, active level unchanged
	if err := store.SwitchLevel("ADMIN"); err == nil {
		t.Error("Expected error switching to a level that is not granted")
	}
	s, _ = store.Current()
	if s.ActiveLevel != "STAFF" {
		t.Error("Failed switch must not change the active level")
	}
}

func TestVersionTags(t *testing.T) {
	store := newTestStore(t)

	if err := store.Init(Session{Login: "jankowalski", AccessToken: "acc"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, ok := store.Tag("sector/s-1"); ok {
		t.Error("Expected no tag before a read")
	}

	if err := store.SetTag("sector/s-1", "v1"); err != nil {
		t.Fatalf("SetTag failed: %v", err)
	}
	if tag, ok := store.Tag("sector/s-1"); !ok || tag != "v1" {
		t.Errorf("Tag = %q/%v, want v1/true", tag, ok)
	}

	store.ClearTag("sector/s-1")
	if _, ok := store.Tag("sector/s-1"); ok {
		t.Error("Expected tag to be gone after ClearTag")
	}
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	if err := store.Init(Session{Login: "jankowalski", AccessToken: "acc"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := store.Current(); ok {
		t.Error("Expected no session after Clear")
	}
	if HasSession() {
		t.Error("Session file should be removed by Clear")
	}
}
