package cli

import (
	"errors"
	"fmt"
	"testing"

	"stubrunner/internal/api"
	"stubrunner/internal/config"
	"stubrunner/internal/runner"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	partial := &PartialFailureError{Report: sampleReport()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitError},
		{"resolution", &api.ResolutionError{Reason: api.ReasonConnectivity}, ExitArtifactFailure},
		{"wrapped unpack", fmt.Errorf("start: %w", &api.UnpackError{Location: "x"}), ExitArtifactFailure},
		{"partial", partial, ExitPartialFailure},
		{"wrapped partial", fmt.Errorf("run: %w", partial), ExitPartialFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPartialFailureError(t *testing.T) {
	err := &PartialFailureError{Report: sampleReport()}
	assert.Equal(t, "2 collaborator(s) failed: ledger, audit", err.Error())
	assert.True(t, api.IsRegistrationError(err))
	assert.True(t, api.IsPortExhausted(err))
}

func TestHint(t *testing.T) {
	remote := &api.ResolutionError{Repository: "https://repo.example.org", Reason: api.ReasonUnresolved}
	local := &api.ResolutionError{Reason: api.ReasonUnresolved}
	unreachable := &api.ResolutionError{Reason: api.ReasonHostResolution}

	assert.Contains(t, Hint(unreachable), "--use-local")
	assert.Contains(t, Hint(local), "local cache")
	assert.Contains(t, Hint(remote), "repository.version")
	assert.Contains(t, Hint(fmt.Errorf("load: %w", config.ValidationErrors{{Field: "portRange", Message: "bad"}})), "configuration")
	assert.Empty(t, Hint(errors.New("other")))
	assert.Empty(t, Hint(&PartialFailureError{Report: &runner.Report{}}))
}

func TestFormatError(t *testing.T) {
	msg := FormatError(&api.ResolutionError{Reason: api.ReasonConnectivity})
	assert.Contains(t, msg, "Error: ")
	assert.Contains(t, msg, "⚠ ")

	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
	assert.Equal(t, "✓ ok", FormatSuccess("ok"))
}
