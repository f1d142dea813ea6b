package runner

import (
	"errors"
	"fmt"

	"stubrunner/internal/api"
)

// Outcome is the failure of one collaborator.
type Outcome struct {
	Alias string
	Err   error
}

// Kind classifies the failure, see api.FailureKind.
func (o Outcome) Kind() string {
	return api.FailureKind(o.Err)
}

// Report is the result of RunAll or CloseAll. Started lists the
// collaborators that are serving, including ones that could not be
// registered; Failures lists every collaborator that reported an error.
// A collaborator can appear in both.
type Report struct {
	Started  []api.Collaborator
	Failures []Outcome
}

// HasFailures reports whether any collaborator failed.
func (r *Report) HasFailures() bool {
	return r != nil && len(r.Failures) > 0
}

// Failed reports whether alias is among the failures.
func (r *Report) Failed(alias string) bool {
	if r == nil {
		return false
	}
	for _, f := range r.Failures {
		if f.Alias == alias {
			return true
		}
	}
	return false
}

// Err joins the failures, or returns nil when there are none. The typed
// errors stay reachable through errors.As.
func (r *Report) Err() error {
	if !r.HasFailures() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Alias, f.Err))
	}
	return errors.Join(errs...)
}
