// Package view coordinates request lifecycles for the console's resource
// views: the idle/loading/success/error machine each listing runs through,
// the per-item in-flight gate for mutations, and the tri-state outcome of the
// two-step report resolution saga.
package view

import "sync"

// Phase is a view's position in its request lifecycle.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// State is a single view's lifecycle machine. Success and Error both re-enter
// Loading on refresh; there is no terminal phase while the view lives.
type State struct {
	mu      sync.Mutex
	phase   Phase
	message string
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Message returns the error message from the last failed load, or the result
// message from the last success.
func (s *State) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Begin arms the machine for a load. Any phase may re-enter Loading except a
// load already in progress.
func (s *State) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Loading {
		return false
	}
	s.phase = Loading
	s.message = ""
	return true
}

// Succeed completes the in-flight load.
func (s *State) Succeed(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Success
	s.message = message
}

// Fail completes the in-flight load with an error message.
func (s *State) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Error
	s.message = message
}

// Reset returns the machine to Idle. Used by the import flow, which only
// leaves its result screen on an explicit reset.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Idle
	s.message = ""
}

// Inflight gates mutating operations per item id: only one create, update, or
// delete may run for a given id at a time, while unrelated ids stay
// independently operable.
type Inflight struct {
	mu  sync.Mutex
	ids map[string]bool
}

func NewInflight() *Inflight {
	return &Inflight{ids: make(map[string]bool)}
}

// Begin claims the id. It returns false when a mutation for the same id is
// already running.
func (f *Inflight) Begin(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids[id] {
		return false
	}
	f.ids[id] = true
	return true
}

// End releases the id.
func (f *Inflight) End(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// Busy reports whether a mutation for id is in flight.
func (f *Inflight) Busy(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

// SagaOutcome classifies a multi-step operation with no atomic rollback.
type SagaOutcome int

const (
	// SagaFailed: the first step failed; nothing changed server-side.
	SagaFailed SagaOutcome = iota
	// SagaPartial: an earlier step succeeded but a later one failed, leaving
	// the server in a known-inconsistent intermediate state.
	SagaPartial
	// SagaComplete: every step succeeded.
	SagaComplete
)

func (o SagaOutcome) String() string {
	switch o {
	case SagaFailed:
		return "failed"
	case SagaPartial:
		return "partially succeeded"
	case SagaComplete:
		return "succeeded"
	}
	return "unknown"
}

// SagaResult reports how far a saga got and what stopped it.
type SagaResult struct {
	Outcome SagaOutcome
	// FailedStep names the step that failed, for Failed and Partial outcomes.
	FailedStep string
	Err        error
}

// Complete is the result of a fully successful saga.
func Complete() SagaResult {
	return SagaResult{Outcome: SagaComplete}
}

// FailedAt marks a saga that failed on its first effective step.
func FailedAt(step string, err error) SagaResult {
	return SagaResult{Outcome: SagaFailed, FailedStep: step, Err: err}
}

// PartialAt marks a saga that failed after at least one step had succeeded.
func PartialAt(step string, err error) SagaResult {
	return SagaResult{Outcome: SagaPartial, FailedStep: step, Err: err}
}
