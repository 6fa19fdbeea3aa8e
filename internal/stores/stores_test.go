package stores

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/session"
	"github.com/mira-platform/miractl/internal/state"
)

// requestLog records every request hitting the fake server, newest last.
type requestLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, r.Method+" "+r.URL.Path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.seen))
	copy(out, l.seen)
	return out
}

type memActions struct {
	mu      sync.Mutex
	entries []state.ActionEntry
}

func (m *memActions) AppendAction(_ context.Context, e *state.ActionEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return int64(len(m.entries)), nil
}

func (m *memActions) ListActions(_ context.Context, limit int) ([]state.ActionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.ActionEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

type harness struct {
	deps    Deps
	session *session.Manager
	log     *requestLog
	actions *memActions
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{log: &requestLog{}, actions: &memActions{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.log.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	h.session = session.NewManager()
	h.session.Set(model.Session{Token: "tok", Role: model.RoleSuperAdmin, DisplayName: "root"})
	h.deps = Deps{
		Client:  api.New(srv.URL, h.session, zerolog.Nop(), 5*time.Second),
		Session: h.session,
		Actions: h.actions,
		Log:     zerolog.Nop(),
	}
	return h
}

func ok(w http.ResponseWriter) {
	w.Write([]byte(`{"success":true}`))
}

func okData(w http.ResponseWriter, data string) {
	w.Write([]byte(`{"success":true,"data":` + data + `}`))
}

func fail(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
