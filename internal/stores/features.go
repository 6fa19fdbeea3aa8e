package stores

import (
	"context"
	"sync"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Features holds raw feature-usage events and the aggregated view derived
// from them. Aggregation happens once per fetch, not per read.
type Features struct {
	deps Deps
	view view.State

	mu        sync.RWMutex
	logs      []model.FeatureLog
	summaries []model.FeatureSummary
}

func NewFeatures(d Deps) *Features {
	return &Features{deps: d}
}

func (s *Features) View() *view.State { return &s.view }

func (s *Features) Logs() []model.FeatureLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeatureLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// Summaries returns the aggregated usage, ranked busiest first.
func (s *Features) Summaries() []model.FeatureSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeatureSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Top returns the most used feature, if any events exist.
func (s *Features) Top() (model.FeatureSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.TopFeature(s.summaries)
}

// TotalHits is the total event count across all features.
func (s *Features) TotalHits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.TotalHits(s.summaries)
}

func (s *Features) List(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	logs, err := s.deps.Client.ListFeatureLogs(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}
	s.mu.Lock()
	s.logs = logs
	s.summaries = aggregate.SummarizeFeatureUsage(logs)
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}
