package unpack

import (
	"os"
	"runtime"
	"sync"

	"stubrunner/pkg/logging"
)

// StubDir is an unpacked stub artifact on disk.
type StubDir struct {
	Path string

	owned bool
	once  sync.Once
	err   error
}

// newOwnedStubDir returns a handle that removes path on Cleanup.
func newOwnedStubDir(path string) *StubDir {
	d := &StubDir{Path: path, owned: true}
	runtime.SetFinalizer(d, func(d *StubDir) {
		if err := d.Cleanup(); err != nil {
			logging.WarnErr("Unpacker", err, "Failed to remove abandoned stub directory %s", d.Path)
		}
	})
	return d
}

// ExistingStubDir wraps a directory the caller manages. Cleanup leaves it in
// place.
func ExistingStubDir(path string) *StubDir {
	return &StubDir{Path: path}
}

// Owned reports whether Cleanup removes the directory.
func (d *StubDir) Owned() bool {
	return d.owned
}

// Cleanup removes an owned directory. It is safe to call more than once.
func (d *StubDir) Cleanup() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		if !d.owned {
			return
		}
		runtime.SetFinalizer(d, nil)
		d.err = os.RemoveAll(d.Path)
		if d.err == nil {
			logging.Debug("Unpacker", "Removed stub directory %s", d.Path)
		}
	})
	return d.err
}
