// Package session owns the operator's authenticated context. The manager is
// the single writer of the bearer token; everything else reads it through the
// api.TokenSource interface or reacts to teardown callbacks.
package session

import (
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
)

// Manager holds the current session and notifies listeners when it is torn
// down by a 401. Safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	current   model.Session
	listeners []func()
}

func NewManager() *Manager {
	return &Manager{}
}

// Set installs a freshly authenticated session.
func (m *Manager) Set(s model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

// Clear drops the session without notifying listeners. Used for explicit
// logout, where the caller already knows.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = model.Session{}
}

// Current returns a copy of the active session.
func (m *Manager) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Token
}

// OnUnauthorized registers a callback run when the server invalidates the
// session. Callbacks run outside the manager's lock.
func (m *Manager) OnUnauthorized(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// HandleError inspects a gateway error and, on 401, tears the session down
// and fires the listeners. The teardown happens at most once per session:
// concurrent 401s from parallel fetches collapse into a single notification.
// Returns true when teardown ran.
func (m *Manager) HandleError(err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}

	m.mu.Lock()
	if !m.current.Authenticated() {
		m.mu.Unlock()
		return false
	}
	m.current = model.Session{}
	listeners := make([]func(), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

// Fingerprint derives a short stable identifier from a token, safe to write
// to logs. The token itself never appears in log output.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}
