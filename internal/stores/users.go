package stores

import (
	"context"
	"sync"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Users manages the platform user collection.
type Users struct {
	deps     Deps
	view     view.State
	inflight *view.Inflight

	mu    sync.RWMutex
	items []model.User
}

func NewUsers(d Deps) *Users {
	return &Users{deps: d, inflight: view.NewInflight()}
}

func (s *Users) View() *view.State { return &s.view }

// Items returns a copy of the current collection.
func (s *Users) Items() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.items))
	copy(out, s.items)
	return out
}

// Filter applies the search query and tier filter to the local collection.
func (s *Users) Filter(query string, tier aggregate.TierFilter) []model.User {
	return aggregate.FilterUsers(s.Items(), query, tier)
}

// HasPendingSubscriptions reports whether any user has a requested upgrade,
// driving the sidebar badge.
func (s *Users) HasPendingSubscriptions() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.HasPendingSubscription(s.items)
}

// List refreshes the collection. On failure the previous items stay visible.
func (s *Users) List(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	users, err := s.deps.Client.ListUsers(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}
	s.mu.Lock()
	s.items = users
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}

// Delete removes one user. The local item leaves only after the server
// confirms, and exactly one entry goes even if display names collide.
func (s *Users) Delete(ctx context.Context, id string) error {
	if !s.inflight.Begin(id) {
		return ErrBusy
	}
	defer s.inflight.End(id)

	err := s.deps.Client.DeleteUser(ctx, id)
	s.deps.record(ctx, "delete_user", id, err)
	if err != nil {
		return s.deps.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.items {
		if u.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

// SetPlan changes a user's subscription level. The local record mutates only
// after the server accepts the new plan.
func (s *Users) SetPlan(ctx context.Context, id, plan string) error {
	if !model.ValidPlan(plan) {
		return &ValidationError{cause: errUnknownPlan(plan)}
	}
	if !s.inflight.Begin(id) {
		return ErrBusy
	}
	defer s.inflight.End(id)

	err := s.deps.Client.UpdateSubscriptionLevel(ctx, id, plan)
	s.deps.record(ctx, "set_plan", id, err)
	if err != nil {
		return s.deps.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = plan
			break
		}
	}
	return nil
}

type errUnknownPlan string

func (e errUnknownPlan) Error() string { return "unknown plan: " + string(e) }
