package stores

import (
	"context"
	"strconv"
	"sync"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Admins manages administrator accounts. Super admins are never part of the
// listed collection no matter what the server returns.
type Admins struct {
	deps     Deps
	view     view.State
	inflight *view.Inflight

	mu    sync.RWMutex
	items []model.Admin
}

func NewAdmins(d Deps) *Admins {
	return &Admins{deps: d, inflight: view.NewInflight()}
}

func (s *Admins) View() *view.State { return &s.view }

func (s *Admins) Items() []model.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Admin, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Admins) List(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	admins, err := s.deps.Client.ListAdmins(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}

	kept := admins[:0]
	for _, a := range admins {
		if model.ParseRole(a.Role, a.Username).IsSuper() {
			continue
		}
		kept = append(kept, a)
	}

	s.mu.Lock()
	s.items = kept
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}

type registerInput struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required,min=8"`
}

// Register creates a new admin account. Input is validated before any network
// traffic; a server rejection returns the server's message so the caller can
// keep the form open and show it.
func (s *Admins) Register(ctx context.Context, username, password string) error {
	if err := validate.Struct(registerInput{Username: username, Password: password}); err != nil {
		return &ValidationError{cause: err}
	}

	err := s.deps.Client.RegisterAdmin(ctx, username, password)
	s.deps.record(ctx, "register_admin", username, err)
	if err != nil {
		return s.deps.fail(err)
	}
	return s.List(ctx)
}

func (s *Admins) Delete(ctx context.Context, id int64) error {
	key := strconv.FormatInt(id, 10)
	if !s.inflight.Begin(key) {
		return ErrBusy
	}
	defer s.inflight.End(key)

	err := s.deps.Client.DeleteAdmin(ctx, id)
	s.deps.record(ctx, "delete_admin", key, err)
	if err != nil {
		return s.deps.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}
