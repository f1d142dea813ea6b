// Package logging provides the subsystem-tagged structured logger used across
// stubrunner.
//
// The package wraps Go's log/slog. Every record carries a "subsystem"
// attribute (Resolver, Unpacker, Runner, Batch, Registry, MockServer, ...) so
// output from the different stages of a batch can be filtered easily.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Resolver", "Resolved %s to %s", coords, location)
//	logging.Warn("Resolver", "Using local repository, remote checks are bypassed")
//	logging.Error("Batch", err, "Collaborator %s failed to start", alias)
//
// InitForCLIWithFormat selects JSON output, which is what CI log collectors
// usually expect. Until one of the Init functions is called all records are
// dropped, which keeps library use (and tests) quiet by default.
package logging
