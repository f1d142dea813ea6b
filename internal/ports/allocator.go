// Package ports hands out mock server ports from a fixed range.
//
// The allocator only knows about ports it handed out itself. A port held by
// another process is discovered when the mock server fails to bind it.
package ports

import (
	"fmt"
	"sort"
	"sync"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"
)

// Allocator assigns ports in [min, max] to owners, lowest free port first.
type Allocator struct {
	min int
	max int

	mu       sync.Mutex
	reserved map[int]string // port -> owner
}

// NewAllocator creates an allocator for the inclusive range [min, max].
func NewAllocator(min, max int) (*Allocator, error) {
	if min < 1 || max > 65535 || min > max {
		return nil, fmt.Errorf("invalid port range [%d, %d]", min, max)
	}
	return &Allocator{
		min:      min,
		max:      max,
		reserved: make(map[int]string),
	}, nil
}

// Range returns the bounds of the allocator.
func (a *Allocator) Range() (min, max int) {
	return a.min, a.max
}

// Allocate reserves the lowest free port for owner.
func (a *Allocator) Allocate(owner string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for port := a.min; port <= a.max; port++ {
		if existing, taken := a.reserved[port]; taken {
			logging.Debug("PortAllocator", "Port %d already reserved by %s, skipping", port, existing)
			continue
		}
		a.reserved[port] = owner
		logging.Debug("PortAllocator", "Reserved port %d for %s", port, owner)
		return port, nil
	}

	return 0, &api.PortExhaustionError{Alias: owner, Min: a.min, Max: a.max}
}

// Release returns port to the pool. Releasing a free port is a no-op.
func (a *Allocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if owner, ok := a.reserved[port]; ok {
		delete(a.reserved, port)
		logging.Debug("PortAllocator", "Released port %d held by %s", port, owner)
	}
}

// Owner returns who holds port.
func (a *Allocator) Owner(port int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	owner, ok := a.reserved[port]
	return owner, ok
}

// Reserved returns the reserved ports in ascending order.
func (a *Allocator) Reserved() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	ports := make([]int, 0, len(a.reserved))
	for port := range a.reserved {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}
