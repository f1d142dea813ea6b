package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"stubrunner/internal/api"
	"stubrunner/internal/ports"
	"stubrunner/internal/registry"

	"github.com/stretchr/testify/require"
)

// memRegistry is an in-memory registry with switchable failures.
type memRegistry struct {
	mu             sync.Mutex
	entries        map[string]*registry.Registration
	failRegister   map[string]bool
	failDeregister bool
	// lossyRegister stores the entry and still reports an error.
	lossyRegister map[string]bool
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		entries:      make(map[string]*registry.Registration),
		failRegister:  make(map[string]bool),
		lossyRegister: make(map[string]bool),
	}
}

func (m *memRegistry) Register(ctx context.Context, alias, host string, port int) (*registry.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRegister[alias] {
		return nil, errors.New("coordination service unavailable")
	}
	reg := &registry.Registration{ID: alias + "-id", Alias: alias, Host: host, Port: port}
	m.entries[alias] = reg
	if m.lossyRegister[alias] {
		return nil, context.DeadlineExceeded
	}
	return reg, nil
}

func (m *memRegistry) Deregister(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeregister {
		return errors.New("coordination service unavailable")
	}
	delete(m.entries, alias)
	return nil
}

func (m *memRegistry) Lookup(ctx context.Context, alias string) (*registry.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.entries[alias]
	if !ok {
		return nil, fmt.Errorf("%s: %w", alias, registry.ErrNotFound)
	}
	return reg, nil
}

func (m *memRegistry) List(ctx context.Context) ([]*registry.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var regs []*registry.Registration
	for _, reg := range m.entries {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Alias < regs[j].Alias })
	return regs, nil
}

func (m *memRegistry) Close() error { return nil }

func (m *memRegistry) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// stubsRoot creates an unpacked stub layout with one ping mapping per alias
// directory.
func stubsRoot(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		dir := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		mapping := fmt.Sprintf(`{"request":{"method":"GET","urlPath":"/ping"},"response":{"body":%q}}`, p)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.json"), []byte(mapping), 0o644))
	}
	return root
}

func newEnv(t *testing.T, min, max int, reg registry.Registry) *Environment {
	t.Helper()
	alloc, err := ports.NewAllocator(min, max)
	require.NoError(t, err)
	return &Environment{Host: "127.0.0.1", Allocator: alloc, Registry: reg}
}

func deps(aliases ...string) []api.Dependency {
	var out []api.Dependency
	for _, a := range aliases {
		out = append(out, api.Dependency{Alias: a, MappingsPath: a + "-stubs"})
	}
	return out
}

func baseArgs(root string, min, max int) Arguments {
	return NewArguments(root, "", 0, min, max, "com/example", []string{"com.example:stubs:1.0.0"})
}
