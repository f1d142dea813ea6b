// Package unpack extracts a resolved stub artifact into a fresh temporary
// directory.
//
// Each call to Unpack creates a new stubrunner-* directory; nothing is reused
// between runs. The returned StubDir owns that directory and removes it on
// Cleanup. A finalizer removes it as well if the handle is dropped without
// Cleanup, but neither runs when the process crashes, so leftovers in the
// system temp directory are possible.
package unpack
