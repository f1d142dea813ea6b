package cli

import (
	"errors"
	"fmt"
	"strings"

	"stubrunner/internal/api"
	"stubrunner/internal/config"
	"stubrunner/internal/runner"
)

// Process exit codes.
const (
	// ExitOK means every collaborator is serving.
	ExitOK = 0
	// ExitError covers configuration problems and unexpected failures.
	ExitError = 1
	// ExitArtifactFailure means the stub artifact could not be resolved or
	// unpacked, so nothing was started.
	ExitArtifactFailure = 2
	// ExitPartialFailure means at least one collaborator failed while the
	// others kept running.
	ExitPartialFailure = 3
)

// PartialFailureError is returned by commands whose batch finished with
// failed collaborators.
type PartialFailureError struct {
	Report *runner.Report
}

// Error lists the failed aliases.
func (e *PartialFailureError) Error() string {
	aliases := make([]string, 0, len(e.Report.Failures))
	for _, f := range e.Report.Failures {
		aliases = append(aliases, f.Alias)
	}
	return fmt.Sprintf("%d collaborator(s) failed: %s", len(aliases), strings.Join(aliases, ", "))
}

// Unwrap exposes the joined failures.
func (e *PartialFailureError) Unwrap() error {
	return e.Report.Err()
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var partial *PartialFailureError
	switch {
	case errors.As(err, &partial):
		return ExitPartialFailure
	case api.IsBatchFatal(err):
		return ExitArtifactFailure
	default:
		return ExitError
	}
}

// Hint returns a line of guidance for well known failures, or "".
func Hint(err error) string {
	var resErr *api.ResolutionError
	if errors.As(err, &resErr) {
		switch resErr.Reason {
		case api.ReasonHostResolution, api.ReasonConnectivity:
			return "Check repository.root, or run with --use-local to resolve from the local cache only"
		case api.ReasonUnresolved:
			if resErr.Repository == "" {
				return "The artifact is not in the local cache; run once without --use-local to download it"
			}
			return "Check repository.group, repository.module and repository.version"
		}
	}

	var validation config.ValidationErrors
	if errors.As(err, &validation) {
		return "Fix the configuration file and run again; see 'stubrunner run --help' for the available overrides"
	}
	if api.IsUnpackError(err) {
		return "The stub artifact is not a valid archive, or repository.stubsDir does not exist"
	}
	return ""
}
