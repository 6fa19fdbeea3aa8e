// Package stores holds one store per admin resource. A store owns its local
// collection, the view state describing the fetch lifecycle, and the mutation
// rules: collections replace wholesale on successful list, stay untouched on
// failure, and individual items leave only after the server confirms.
package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/session"
	"github.com/mira-platform/miractl/internal/state"
)

// ErrBusy is returned when a mutation is already in flight for the same id.
var ErrBusy = errors.New("operation already in flight")

var validate = validator.New()

// ValidationError is a pre-flight input rejection. It never corresponds to a
// network round trip.
type ValidationError struct {
	cause error
}

func (e *ValidationError) Error() string { return "invalid input: " + e.cause.Error() }
func (e *ValidationError) Unwrap() error { return e.cause }

// IsValidation reports whether err is a pre-flight validation failure.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// Deps are the shared collaborators every store is built with.
type Deps struct {
	Client  *api.Client
	Session *session.Manager
	Actions state.ActionLogStore
	Log     zerolog.Logger
}

// record appends a line to the local action log. Failures to write the log
// are logged and swallowed; the audit trail never blocks moderation.
func (d Deps) record(ctx context.Context, action, target string, opErr error) {
	if d.Actions == nil {
		return
	}
	outcome := "ok"
	if opErr != nil {
		outcome = fmt.Sprintf("error: %s", opErr)
	}
	entry := state.ActionEntry{
		Actor:     d.Session.Current().DisplayName,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := d.Actions.AppendAction(ctx, &entry); err != nil {
		d.Log.Warn().Err(err).Str("action", action).Msg("action log write failed")
	}
}

// fail routes a gateway error through the session manager so a 401 tears the
// session down, then returns the error unchanged.
func (d Deps) fail(err error) error {
	if err == nil {
		return nil
	}
	d.Session.HandleError(err)
	return err
}
