package stores

import (
	"context"
	"sync"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Reports manages pending content reports and the two moderation paths:
// dismissing a report keeps the content, resolving it deletes the content
// first and the report second.
type Reports struct {
	deps     Deps
	view     view.State
	inflight *view.Inflight

	mu    sync.RWMutex
	items []model.Report
}

func NewReports(d Deps) *Reports {
	return &Reports{deps: d, inflight: view.NewInflight()}
}

func (s *Reports) View() *view.State { return &s.view }

func (s *Reports) Items() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Report, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Reports) Filter(query string) []model.Report {
	return aggregate.FilterReports(s.Items(), query)
}

func (s *Reports) List(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	reports, err := s.deps.Client.ListReports(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}
	s.mu.Lock()
	s.items = reports
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}

// Dismiss deletes the report record only. The reported content stays up.
func (s *Reports) Dismiss(ctx context.Context, id string) error {
	if !s.inflight.Begin(id) {
		return ErrBusy
	}
	defer s.inflight.End(id)

	err := s.deps.Client.DeleteReport(ctx, id)
	s.deps.record(ctx, "dismiss_report", id, err)
	if err != nil {
		return s.deps.fail(err)
	}
	s.remove(id)
	return nil
}

// Resolve deletes the reported content and then the report, in that order.
// The report leaves the local collection only on full success: a partial
// outcome (content gone, report stuck) keeps it visible so the operator can
// retry the dismissal.
func (s *Reports) Resolve(ctx context.Context, report model.Report) view.SagaResult {
	if !s.inflight.Begin(report.ID) {
		return view.FailedAt("gate", ErrBusy)
	}
	defer s.inflight.End(report.ID)

	contentID := report.ContentID()
	if contentID == "" {
		return view.FailedAt("content", errMissingContent{})
	}

	if err := s.deps.Client.DeletePost(ctx, contentID); err != nil {
		s.deps.record(ctx, "resolve_report", report.ID, err)
		s.deps.fail(err)
		return view.FailedAt("content", err)
	}

	if err := s.deps.Client.DeleteReport(ctx, report.ID); err != nil {
		s.deps.record(ctx, "resolve_report", report.ID, err)
		s.deps.fail(err)
		return view.PartialAt("report", err)
	}

	s.deps.record(ctx, "resolve_report", report.ID, nil)
	s.remove(report.ID)
	return view.Complete()
}

func (s *Reports) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if r.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

type errMissingContent struct{}

func (errMissingContent) Error() string { return "report has no resolvable content id" }
