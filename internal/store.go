package internal

import (
	"fmt"
	"sync"
)

// SessionStore owns the session state for the whole process. The monitor and
// the edit flows get it injected at construction; commands read it through
// accessors. Every mutation is persisted before it returns.
type SessionStore struct {
	mu      sync.RWMutex
	secret  string
	session *Session // nil when logged out
}

// NewSessionStore returns an empty (logged-out) store.
func NewSessionStore(secret string) *SessionStore {
	return &SessionStore{secret: secret}
}

// OpenSessionStore loads the persisted session, if any. A missing session
// file yields a logged-out store, not an error.
func OpenSessionStore(secret string) (*SessionStore, error) {
	store := NewSessionStore(secret)
	s, err := LoadSession(secret)
	if err != nil {
		if err == ErrNoSession {
			return store, nil
		}
		return nil, err
	}
	store.session = s
	return store, nil
}

// Current returns a copy of the session. ok is false when logged out.
func (st *SessionStore) Current() (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.session == nil {
		return Session{}, false
	}
	return st.copyLocked(), true
}

// AccessToken returns the current access token.
func (st *SessionStore) AccessToken() (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.session == nil {
		return "", false
	}
	return st.session.AccessToken, true
}

// RefreshToken returns the current refresh token.
func (st *SessionStore) RefreshToken() (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.session == nil {
		return "", false
	}
	return st.session.RefreshToken, true
}

// Init installs a fresh session at login time.
func (st *SessionStore) Init(s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s.VersionTags == nil {
		s.VersionTags = map[string]string{}
	}
	st.session = &s
	return st.persistLocked()
}

// ReplacePair swaps both tokens in one step after a successful refresh.
// No reader can ever observe a new access token next to the old refresh
// token. The caller keeps the old pair if this returns an error.
func (st *SessionStore) ReplacePair(pair TokenPair) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return ErrNoSession
	}
	prev := *st.session
	st.session.AccessToken = pair.AccessToken
	st.session.RefreshToken = pair.RefreshToken
	if expiresAt, ok, err := DecodeExpiry(pair.AccessToken); err == nil && ok {
		st.session.Expiration = expiresAt
	}
	if err := st.persistLocked(); err != nil {
		*st.session = prev
		return err
	}
	return nil
}

// SwitchLevel changes the locally active user level. Purely local; the
// server learns about it on the next privileged call.
func (st *SessionStore) SwitchLevel(level string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return ErrNoSession
	}
	for _, l := range st.session.Levels {
		if l == level {
			st.session.ActiveLevel = level
			return st.persistLocked()
		}
	}
	return fmt.Errorf("level %q is not granted to this account", level)
}

// Tag returns the version tag last observed for a resource.
func (st *SessionStore) Tag(resource string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.session == nil {
		return "", false
	}
	tag, ok := st.session.VersionTags[resource]
	return tag, ok
}

// SetTag records the version tag observed at the latest read of a resource.
func (st *SessionStore) SetTag(resource, tag string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return ErrNoSession
	}
	if st.session.VersionTags == nil {
		st.session.VersionTags = map[string]string{}
	}
	st.session.VersionTags[resource] = tag
	return st.persistLocked()
}

// ClearTag forgets the tag for a resource (edit flow closed).
func (st *SessionStore) ClearTag(resource string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return
	}
	delete(st.session.VersionTags, resource)
	_ = st.persistLocked()
}

// Clear tears the session down: logout or acknowledged expiry.
func (st *SessionStore) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.session = nil
	return ClearSession()
}

func (st *SessionStore) copyLocked() Session {
	s := *st.session
	s.Levels = append([]string(nil), st.session.Levels...)
	s.VersionTags = make(map[string]string, len(st.session.VersionTags))
	for k, v := range st.session.VersionTags {
		s.VersionTags[k] = v
	}
	return s
}

func (st *SessionStore) persistLocked() error {
	return SaveSession(st.session, st.secret)
}
