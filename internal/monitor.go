package internal

import (
	"context"
	"sync"
	"time"
)

// MonitorState is the lifecycle state of the current access token.
type MonitorState int

const (
	// StateIdle: no credential present (logged out). No timers armed.
	StateIdle MonitorState = iota
	// StateValid: credential present, warning deadline not yet reached.
	StateValid
	// StateWarning: renewal window open; the user should renew or the
	// session will hard-expire.
	StateWarning
	// StateExpired: hard deadline reached or renewal failed. The only way
	// out is an explicit acknowledgement that tears the session down.
	StateExpired
)

func (s MonitorState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateValid:
		return "VALID"
	case StateWarning:
		return "WARNING"
	case StateExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// MonitorEvent is delivered to the subscriber on every state change.
type MonitorEvent struct {
	State     MonitorState
	ExpiresAt time.Time
	Reason    string
}

// RefreshFunc exchanges a refresh token for a new pair. Implemented by
// Client.RefreshSession; swapped out in tests.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// Monitor tracks the access token's validity over wall-clock time. It arms
// at most one warning timer and one hard-expiry timer per credential and
// tears both down whenever the credential changes. There is one Monitor per
// process; presentation subscribes to its events and issues intents
// (Renew, Decline, Acknowledge), never transitions.
type Monitor struct {
	mu      sync.Mutex
	store   *SessionStore
	refresh RefreshFunc
	lead    time.Duration
	now     func() time.Time
	notify  func(MonitorEvent)

	// gen invalidates timers armed for a superseded credential: a timer
	// callback whose generation no longer matches is a no-op.
	gen       uint64
	state     MonitorState
	expiresAt time.Time
	hasExpiry bool
	warnTimer *time.Timer
	hardTimer *time.Timer
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithLeadTime overrides the warning lead time (tests use millisecond leads).
func WithLeadTime(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.lead = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// WithNotify sets the state-change subscriber.
func WithNotify(fn func(MonitorEvent)) MonitorOption {
	return func(m *Monitor) { m.notify = fn }
}

// NewMonitor builds a disarmed monitor bound to a session store.
func NewMonitor(store *SessionStore, refresh RefreshFunc, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		store:   store,
		refresh: refresh,
		lead:    WarningLeadTime,
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Monitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ExpiresAt returns the hard deadline of the current credential.
func (m *Monitor) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt, m.hasExpiry
}

// Arm evaluates the stored credential and arms timers for it. Any timers
// armed for a previous credential are cancelled first. Call it once at
// startup and again after every credential change that bypasses Renew.
func (m *Monitor) Arm() {
	m.mu.Lock()
	ev := m.armLocked()
	m.mu.Unlock()
	m.emit(ev)
}

// Disarm cancels all timers and returns to Idle without touching the
// stored session. Used on logout, after the store has been cleared.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	m.invalidateLocked()
	ev := m.setStateLocked(StateIdle, "disarmed")
	m.mu.Unlock()
	m.emit(ev)
}

// Renew runs the refresh exchange for the current credential. On success
// the token pair is swapped and the monitor re-armed as one unit; on any
// failure the stored pair is untouched and the monitor goes to Expired.
// The caller bounds the exchange with ctx.
func (m *Monitor) Renew(ctx context.Context) error {
	m.mu.Lock()
	refreshToken, ok := m.store.RefreshToken()
	gen := m.gen
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	pair, err := m.refresh(ctx, refreshToken)

	m.mu.Lock()
	if m.gen != gen && m.state == StateIdle {
		// Logged out while the exchange was in flight; drop the result.
		m.mu.Unlock()
		return ErrNoSession
	}
	if err != nil {
		m.invalidateLocked()
		ev := m.setStateLocked(StateExpired, "refresh failed: "+err.Error())
		m.mu.Unlock()
		m.emit(ev)
		return err
	}
	if err := m.store.ReplacePair(pair); err != nil {
		m.invalidateLocked()
		ev := m.setStateLocked(StateExpired, "could not persist refreshed tokens")
		m.mu.Unlock()
		m.emit(ev)
		return err
	}
	ev := m.armLocked()
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// Decline records that the user declined renewal. The warning stays open
// and the hard-expiry timer keeps running; declining and ignoring the
// warning are deliberately the same thing.
func (m *Monitor) Decline() {}

// Acknowledge is the only exit from Expired: the session is torn down and
// the monitor returns to Idle.
func (m *Monitor) Acknowledge() error {
	m.mu.Lock()
	if m.state != StateExpired {
		m.mu.Unlock()
		return nil
	}
	m.invalidateLocked()
	err := m.store.Clear()
	ev := m.setStateLocked(StateIdle, "expiry acknowledged")
	m.mu.Unlock()
	m.emit(ev)
	return err
}

// armLocked cancels any timers for the previous credential and evaluates
// the stored one from scratch.
func (m *Monitor) armLocked() *MonitorEvent {
	m.invalidateLocked()

	token, ok := m.store.AccessToken()
	if !ok {
		return m.setStateLocked(StateIdle, "no credential")
	}

	expiresAt, hasExpiry, err := DecodeExpiry(token)
	if err != nil {
		// An unparseable token cannot be trusted; force re-authentication.
		return m.setStateLocked(StateExpired, "access token malformed")
	}
	if !hasExpiry {
		m.hasExpiry = false
		return m.setStateLocked(StateValid, "credential never expires")
	}

	m.expiresAt = expiresAt
	m.hasExpiry = true
	now := m.now()
	remaining := Remaining(expiresAt, now)

	if remaining <= 0 {
		return m.setStateLocked(StateExpired, "access token expired")
	}
	if remaining <= m.lead {
		m.armHardLocked(remaining)
		return m.setStateLocked(StateWarning, "expiry imminent")
	}

	gen := m.gen
	m.warnTimer = time.AfterFunc(WarningDelay(expiresAt, now, m.lead), func() {
		m.onWarningDeadline(gen)
	})
	return m.setStateLocked(StateValid, "")
}

func (m *Monitor) onWarningDeadline(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateValid {
		m.mu.Unlock()
		return
	}
	m.armHardLocked(Remaining(m.expiresAt, m.now()))
	ev := m.setStateLocked(StateWarning, "warning deadline reached")
	m.mu.Unlock()
	m.emit(ev)
}

func (m *Monitor) armHardLocked(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	gen := m.gen
	m.hardTimer = time.AfterFunc(remaining, func() {
		m.onHardDeadline(gen)
	})
}

func (m *Monitor) onHardDeadline(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state == StateExpired || m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	ev := m.setStateLocked(StateExpired, "hard deadline reached")
	m.mu.Unlock()
	m.emit(ev)
}

// invalidateLocked stops both timers and bumps the generation so that any
// timer callback already in flight becomes a no-op. Cancellation is
// complete before a new timer for the same slot can be armed.
func (m *Monitor) invalidateLocked() {
	m.gen++
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.hardTimer != nil {
		m.hardTimer.Stop()
		m.hardTimer = nil
	}
}

func (m *Monitor) setStateLocked(state MonitorState, reason string) *MonitorEvent {
	if m.state == state && state != StateValid {
		return nil
	}
	m.state = state
	ev := &MonitorEvent{State: state, Reason: reason}
	if m.hasExpiry {
		ev.ExpiresAt = m.expiresAt
	}
	return ev
}

func (m *Monitor) emit(ev *MonitorEvent) {
	if ev != nil && m.notify != nil {
		m.notify(*ev)
	}
}
