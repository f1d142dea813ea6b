// Package cli provides the output layer of the stubrunner commands.
//
// Printer renders batch reports, registry entries and resolved artifacts as
// go-pretty tables (bordered or plain) or as JSON and YAML. Progress wraps a
// spinner shown on stderr while artifacts are resolved and collaborators
// are started, and is silent in quiet mode.
//
// ExitCode maps command errors to the process exit status:
//   - 0: every collaborator is serving
//   - 1: configuration or unexpected error
//   - 2: the stub artifact could not be resolved or unpacked
//   - 3: some collaborators failed, the others are serving
//
// FormatError adds a hint for well known failures such as an unreachable
// repository or an artifact missing from the local cache.
package cli
