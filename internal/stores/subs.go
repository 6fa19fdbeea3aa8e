package stores

import (
	"context"
	"sync"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Subscriptions manages pending plan-upgrade requests. Approve and reject are
// both terminal: the request leaves the local list on success either way.
type Subscriptions struct {
	deps     Deps
	view     view.State
	inflight *view.Inflight

	mu    sync.RWMutex
	items []model.SubscriptionRequest
}

func NewSubscriptions(d Deps) *Subscriptions {
	return &Subscriptions{deps: d, inflight: view.NewInflight()}
}

func (s *Subscriptions) View() *view.State { return &s.view }

func (s *Subscriptions) Items() []model.SubscriptionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SubscriptionRequest, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Subscriptions) ListPending(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	reqs, err := s.deps.Client.ListSubscriptionRequests(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}
	s.mu.Lock()
	s.items = reqs
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}

func (s *Subscriptions) Approve(ctx context.Context, id string) error {
	return s.decide(ctx, id, "approve_subscription", s.deps.Client.ApproveSubscription)
}

func (s *Subscriptions) Reject(ctx context.Context, id string) error {
	return s.decide(ctx, id, "reject_subscription", s.deps.Client.RejectSubscription)
}

func (s *Subscriptions) decide(ctx context.Context, id, action string, call func(context.Context, string) error) error {
	if !s.inflight.Begin(id) {
		return ErrBusy
	}
	defer s.inflight.End(id)

	err := call(ctx, id)
	s.deps.record(ctx, action, id, err)
	if err != nil {
		return s.deps.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if r.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}
