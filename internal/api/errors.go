package api

import (
	"errors"
	"fmt"
)

// ErrRunnerStopped is returned when a stub runner that was already stopped is
// asked to run again.
var ErrRunnerStopped = errors.New("stub runner already stopped")

// ResolutionReason categorizes why an artifact could not be resolved.
type ResolutionReason string

const (
	// ReasonHostResolution means the repository host name did not resolve.
	ReasonHostResolution ResolutionReason = "host-resolution"
	// ReasonConnectivity covers every other transport failure.
	ReasonConnectivity ResolutionReason = "connectivity"
	// ReasonStatus means the repository answered with a non-success status.
	ReasonStatus ResolutionReason = "status"
	// ReasonUnresolved means the coordinates do not exist in the repository.
	ReasonUnresolved ResolutionReason = "unresolved"
	// ReasonUnsupported means the request cannot be served by this resolver.
	ReasonUnsupported ResolutionReason = "unsupported"
)

// ResolutionError reports that the stub artifact could not be located.
// It is fatal to the whole batch: no collaborator can be stubbed without the
// artifact.
//
// StatusCode is set when the repository answered with an HTTP status that
// ended the resolution.
type ResolutionError struct {
	Coordinates Coordinates
	Repository  string
	Reason      ResolutionReason
	StatusCode  int
	Err         error
}

// Error implements the error interface for ResolutionError.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("failed to resolve stub artifact %s", e.Coordinates)
	if e.Repository != "" {
		msg += fmt.Sprintf(" from %s", e.Repository)
	}

	switch e.Reason {
	case ReasonHostResolution:
		msg += ": repository host could not be resolved"
	case ReasonConnectivity:
		msg += ": repository is not reachable"
	case ReasonStatus:
		msg += fmt.Sprintf(": repository returned HTTP %d", e.StatusCode)
	case ReasonUnresolved:
		msg += ": artifact not found"
	case ReasonUnsupported:
		msg += ": unsupported request"
	}

	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// UnpackError reports that the resolved artifact could not be extracted.
// Like ResolutionError it aborts the batch.
type UnpackError struct {
	Location string
	Err      error
}

// Error implements the error interface for UnpackError.
func (e *UnpackError) Error() string {
	return fmt.Sprintf("failed to unpack stub artifact %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UnpackError) Unwrap() error {
	return e.Err
}

// PortExhaustionError reports that every port of the configured range is
// already taken by the batch.
type PortExhaustionError struct {
	Alias string
	Min   int
	Max   int
}

// Error implements the error interface for PortExhaustionError.
func (e *PortExhaustionError) Error() string {
	if e.Alias == "" {
		return fmt.Sprintf("no free port in range [%d, %d]", e.Min, e.Max)
	}
	return fmt.Sprintf("no free port in range [%d, %d] for collaborator %s", e.Min, e.Max, e.Alias)
}

// BindError reports that a mock server could not listen on the port the
// allocator selected, usually because another process holds it.
type BindError struct {
	Alias string
	Port  int
	Err   error
}

// Error implements the error interface for BindError.
func (e *BindError) Error() string {
	return fmt.Sprintf("collaborator %s failed to bind port %d: %v", e.Alias, e.Port, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BindError) Unwrap() error {
	return e.Err
}

// RegistrationError reports that a running mock server could not be published
// in the coordination service. The server may still be serving, but it is not
// discoverable under its alias.
type RegistrationError struct {
	Alias string
	Err   error
}

// Error implements the error interface for RegistrationError.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("collaborator %s started but could not be registered: %v", e.Alias, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// DeregistrationError reports that a registration could not be removed during
// teardown.
type DeregistrationError struct {
	Alias string
	Err   error
}

// Error implements the error interface for DeregistrationError.
func (e *DeregistrationError) Error() string {
	return fmt.Sprintf("failed to deregister collaborator %s: %v", e.Alias, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeregistrationError) Unwrap() error {
	return e.Err
}

// StopError reports that a mock server could not be shut down cleanly.
type StopError struct {
	Alias string
	Err   error
}

// Error implements the error interface for StopError.
func (e *StopError) Error() string {
	return fmt.Sprintf("failed to stop mock server for collaborator %s: %v", e.Alias, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StopError) Unwrap() error {
	return e.Err
}

// IsResolutionError checks if an error is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	var target *ResolutionError
	return errors.As(err, &target)
}

// IsUnpackError checks if an error is or wraps an UnpackError.
func IsUnpackError(err error) bool {
	var target *UnpackError
	return errors.As(err, &target)
}

// IsPortExhausted checks if an error is or wraps a PortExhaustionError.
func IsPortExhausted(err error) bool {
	var target *PortExhaustionError
	return errors.As(err, &target)
}

// IsBindError checks if an error is or wraps a BindError.
func IsBindError(err error) bool {
	var target *BindError
	return errors.As(err, &target)
}

// IsRegistrationError checks if an error is or wraps a RegistrationError.
func IsRegistrationError(err error) bool {
	var target *RegistrationError
	return errors.As(err, &target)
}

// IsBatchFatal reports whether err must abort the batch before any stub
// runner is built.
//
// Example:
//
//	app, err := app.NewApplication(cfg)
//	...
//	if _, err := app.Start(ctx); api.IsBatchFatal(err) {
//	    return err
//	}
func IsBatchFatal(err error) bool {
	return IsResolutionError(err) || IsUnpackError(err)
}

// FailureKind returns a short label for a per-collaborator error, used in
// reports and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsPortExhausted(err):
		return "port-exhausted"
	case IsBindError(err):
		return "bind"
	case IsRegistrationError(err):
		return "registration"
	case errors.As(err, new(*DeregistrationError)):
		return "deregistration"
	case errors.As(err, new(*StopError)):
		return "stop"
	case IsResolutionError(err):
		return "resolution"
	case IsUnpackError(err):
		return "unpack"
	default:
		return "other"
	}
}
