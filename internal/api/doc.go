// Package api holds the types shared between the stubrunner packages and the
// error taxonomy every stage of a batch reports through.
//
// The package imports nothing from the rest of the module so that the
// resolver, unpacker, registry, mock server and runner packages can all depend
// on it without creating cycles.
//
// # Error taxonomy
//
// Batch-fatal errors abort before any stub runner is constructed:
//
//   - *ResolutionError: the stub artifact could not be located
//   - *UnpackError: the artifact could not be extracted
//
// Per-collaborator errors are collected into the batch report while the rest
// of the batch keeps going:
//
//   - *PortExhaustionError: no free port left in the configured range
//   - *BindError: the chosen port could not be bound
//   - *RegistrationError: the server runs but is not discoverable
//   - *DeregistrationError, *StopError: teardown problems, logged and aggregated
//
// Use the Is* helpers (or errors.As) to classify wrapped errors:
//
//	if api.IsBatchFatal(err) {
//	    return err
//	}
package api
