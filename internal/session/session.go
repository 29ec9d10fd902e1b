package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
)

// Session is the authenticated identity for the duration of a login. The
// zero value means "not authenticated".
type Session struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
	// ExpiresAt is decoded from the token's exp claim when the credential is
	// a JWT; zero for opaque tokens.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (s Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists the session credential across restarts.
type Store interface {
	SaveSession(Session) error
	LoadSession() (Session, bool, error)
	ClearSession() error
}

// Manager is the sole source of truth for "is the user authenticated". No
// other component reads or writes session state directly; the gateway gets a
// reference to the manager as its TokenSource.
type Manager struct {
	mu    sync.Mutex
	cur   *Session
	store Store
	log   *logging.Logger
	now   func() time.Time
}

func NewManager(store Store, log *logging.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// Restore loads a previously persisted session, discarding it when expired.
func (m *Manager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok, err := m.store.LoadSession()
	if err != nil || !ok {
		return
	}
	if sess.Token == "" || sess.expired(m.now()) {
		_ = m.store.ClearSession()
		return
	}
	m.cur = &sess
}

// Set installs a fresh credential from a successful login or registration
// and persists it.
func (m *Manager) Set(token, username string) error {
	sess := Session{Token: token, Username: username, IssuedAt: time.Now()}
	if issued, expires, ok := decodeClaims(token); ok {
		if !issued.IsZero() {
			sess.IssuedAt = issued
		}
		sess.ExpiresAt = expires
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SaveSession(sess); err != nil {
		return err
	}
	m.cur = &sess
	return nil
}

// Clear destroys the session. Idempotent: clearing an absent session is a
// no-op.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = nil
	_ = m.store.ClearSession()
}

// Invalidate is the global authorization-loss handler wired into the
// gateway's OnUnauthorized hook.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	hadSession := m.cur != nil
	m.cur = nil
	_ = m.store.ClearSession()
	m.mu.Unlock()
	if hadSession {
		m.log.Info("session invalidated", nil)
	}
}

// Get returns the current session. An expired credential reads as absent.
func (m *Manager) Get() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil || m.cur.expired(m.now()) {
		return Session{}, false
	}
	return *m.cur, true
}

// Token implements the gateway's TokenSource.
func (m *Manager) Token() (string, bool) {
	sess, ok := m.Get()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// decodeClaims reads iat/exp out of a JWT without verifying its signature.
// The client only uses them to avoid round-trips with a credential the
// server is guaranteed to reject; the server remains the authority.
func decodeClaims(token string) (issued, expires time.Time, ok bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, time.Time{}, false
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		issued = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expires = exp.Time
	}
	return issued, expires, true
}
