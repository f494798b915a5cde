package services

import (
	"sync"
	"time"

	"backend/models"

	"go.uber.org/zap"
)

// SessionState is the lifecycle position of one session:
// uninitialized → valid → (expiring → valid | invalid) → cleared.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionValid
	SessionExpiring
	SessionInvalid
)

func (s SessionState) String() string {
	switch s {
	case SessionValid:
		return "valid"
	case SessionExpiring:
		return "expiring"
	case SessionInvalid:
		return "invalid"
	default:
		return "uninitialized"
	}
}

const (
	// A session this close to expiry gets refreshed before being
	// reported valid.
	refreshBuffer = 60 * time.Second

	// Background revalidation period.
	checkInterval = 5 * time.Minute
)

// SessionSource is the slice of the identity collaborator the manager
// drives: enumerate live sessions, refresh one, clear one.
type SessionSource interface {
	ActiveSessions() ([]models.Session, error)
	RefreshSession(sess *models.Session) (*models.Session, error)
	ClearSession(sess *models.Session) error
}

// SessionNotifier surfaces a "session expired" notification to the user.
type SessionNotifier interface {
	NotifySessionExpired(userID uint)
}

// SessionManager owns session validity: it classifies sessions against the
// refresh buffer, proactively refreshes expiring ones, sweeps in the
// background on a fixed period, and reacts to identity lifecycle events.
// Both the sweep and the event listener converge to the same derived truth,
// so their writes may interleave without locking beyond the state map.
type SessionManager struct {
	src    SessionSource
	bus    *AuthBus
	notify SessionNotifier
	log    *zap.Logger

	// overridable in tests
	now      func() time.Time
	interval time.Duration

	mu     sync.Mutex
	states map[uint]SessionState // by user id

	subID  int
	events <-chan AuthEvent
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewSessionManager(src SessionSource, bus *AuthBus, notify SessionNotifier, log *zap.Logger) *SessionManager {
	return &SessionManager{
		src:      src,
		bus:      bus,
		notify:   notify,
		log:      log,
		now:      time.Now,
		interval: checkInterval,
		states:   make(map[uint]SessionState),
	}
}

// Evaluate classifies a session without side effects.
func (m *SessionManager) Evaluate(sess *models.Session) SessionState {
	if sess == nil {
		return SessionUninitialized
	}
	now := m.now()
	if !sess.ExpiresAt.After(now) {
		return SessionInvalid
	}
	// Strict <: a session exactly refreshBuffer from expiry is still valid.
	if sess.ExpiresAt.Sub(now) < refreshBuffer {
		return SessionExpiring
	}
	return SessionValid
}

// EnsureValid reports a session's state, refreshing it first when it is
// inside the expiry buffer. Refresh failure and outright expiry both clear
// the session and report invalid.
func (m *SessionManager) EnsureValid(sess *models.Session) (SessionState, *models.Session, error) {
	switch m.Evaluate(sess) {
	case SessionUninitialized:
		return SessionUninitialized, nil, nil

	case SessionInvalid:
		_ = m.src.ClearSession(sess)
		m.setState(sess.UserID, SessionInvalid)
		return SessionInvalid, nil, nil

	case SessionExpiring:
		refreshed, err := m.src.RefreshSession(sess)
		if err != nil {
			_ = m.src.ClearSession(sess)
			m.setState(sess.UserID, SessionInvalid)
			return SessionInvalid, nil, err
		}
		m.setState(refreshed.UserID, SessionValid)
		m.bus.Publish(AuthEvent{Type: EventTokenRefreshed, UserID: refreshed.UserID, Session: refreshed})
		return SessionValid, refreshed, nil
	}

	m.setState(sess.UserID, SessionValid)
	return SessionValid, sess, nil
}

// UserState reports the last known state for a user's session.
func (m *SessionManager) UserState(userID uint) SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[userID]; ok {
		return s
	}
	return SessionUninitialized
}

func (m *SessionManager) setState(userID uint, s SessionState) {
	m.mu.Lock()
	m.states[userID] = s
	m.mu.Unlock()
}

// Start subscribes to the identity event stream and launches the periodic
// revalidation loop. Pair with Stop.
func (m *SessionManager) Start() {
	m.subID, m.events = m.bus.Subscribe()
	m.ticker = time.NewTicker(m.interval)
	m.done = make(chan struct{})
	m.wg.Add(1)
	go m.run()
}

// Stop releases the timer and the event subscription. Guaranteed teardown:
// after Stop returns, the manager no longer touches any shared state.
func (m *SessionManager) Stop() {
	m.ticker.Stop()
	close(m.done)
	m.wg.Wait()
	m.bus.Unsubscribe(m.subID)
}

func (m *SessionManager) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C:
			m.sweep()
		case ev, ok := <-m.events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		}
	}
}

// sweep revalidates every live session: expiring ones get their lifetime
// extended, expired ones get cleared and the user is told to sign in again.
func (m *SessionManager) sweep() {
	sessions, err := m.src.ActiveSessions()
	if err != nil {
		m.log.Warn("session sweep failed", zap.Error(err))
		return
	}

	for i := range sessions {
		sess := sessions[i]
		state, _, err := m.EnsureValid(&sess)
		if err != nil {
			m.log.Warn("session refresh failed during sweep",
				zap.Uint("user_id", sess.UserID), zap.Error(err))
		}
		if state == SessionInvalid {
			if m.notify != nil {
				m.notify.NotifySessionExpired(sess.UserID)
			}
			m.bus.Publish(AuthEvent{Type: EventSignedOut, UserID: sess.UserID})
		}
	}
}

func (m *SessionManager) handleEvent(ev AuthEvent) {
	switch ev.Type {
	case EventSignedIn, EventTokenRefreshed, EventUserUpdated:
		m.setState(ev.UserID, SessionValid)
	case EventSignedOut:
		m.mu.Lock()
		delete(m.states, ev.UserID)
		m.mu.Unlock()
	}
}
