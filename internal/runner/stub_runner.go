package runner

import (
	"context"
	"errors"
	"sync"

	"stubrunner/internal/api"
	"stubrunner/internal/mock"
	"stubrunner/internal/ports"
	"stubrunner/internal/registry"
	"stubrunner/pkg/logging"
)

// Observer is told about lifecycle events of runners. internal/metrics
// implements it.
type Observer interface {
	RecordStarted(alias string)
	RecordStopped(alias string)
	RecordFailure(alias, kind string)
}

// Environment holds what the runners of a batch share.
type Environment struct {
	// Host is bound by mock servers and published in the registry.
	Host      string
	Allocator *ports.Allocator
	Registry  registry.Registry
	// Observer may be nil.
	Observer      Observer
	ServerOptions []mock.ServerOption
}

// StubRunner runs the mock server of one collaborator.
type StubRunner struct {
	dep  api.Dependency
	args Arguments
	env  *Environment

	mu           sync.Mutex
	state        State
	server       *mock.Server
	port         int
	registration *registry.Registration
	failure      error
}

// NewStubRunner creates a runner in state Created.
func NewStubRunner(dep api.Dependency, args Arguments, env *Environment) *StubRunner {
	return &StubRunner{
		dep:   dep,
		args:  args,
		env:   env,
		state: StateCreated,
	}
}

// Alias returns the collaborator alias.
func (r *StubRunner) Alias() string {
	return r.dep.Alias
}

// Arguments returns the runner's arguments.
func (r *StubRunner) Arguments() Arguments {
	return r.args
}

// State returns the current state.
func (r *StubRunner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Collaborator returns the running view of the runner. ok is false unless
// the runner is Running.
func (r *StubRunner) Collaborator() (api.Collaborator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return api.Collaborator{}, false
	}
	return r.collaboratorLocked(), true
}

func (r *StubRunner) collaboratorLocked() api.Collaborator {
	return api.Collaborator{
		Alias:      r.dep.Alias,
		Host:       r.env.Host,
		Port:       r.port,
		Registered: r.registration != nil,
	}
}

// Run reserves a port, starts the mock server and registers it. Calling Run
// on a running runner returns its collaborator without doing anything.
//
// A port or bind failure leaves the runner Failed with nothing registered. A
// registration failure leaves it Running but unregistered and returns a
// *api.RegistrationError together with the collaborator.
func (r *StubRunner) Run(ctx context.Context) (api.Collaborator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRunning:
		return r.collaboratorLocked(), nil
	case StateFailed:
		return api.Collaborator{}, r.failure
	case StateStopped:
		return api.Collaborator{}, api.ErrRunnerStopped
	}

	alias := r.dep.Alias
	port, err := r.env.Allocator.Allocate(alias)
	if err != nil {
		return api.Collaborator{}, r.failLocked(err)
	}

	server, err := mock.NewServer(alias, r.env.Host, r.args.MappingsDir(), r.env.ServerOptions...)
	if err != nil {
		r.env.Allocator.Release(port)
		return api.Collaborator{}, r.failLocked(err)
	}
	// A port that failed to bind stays reserved so no other runner of the
	// batch picks it again.
	if err := server.StartOnPort(ctx, port); err != nil {
		return api.Collaborator{}, r.failLocked(err)
	}

	r.server = server
	r.port = port
	r.state = StateRunning
	if r.env.Observer != nil {
		r.env.Observer.RecordStarted(alias)
	}

	reg, err := r.env.Registry.Register(ctx, alias, r.env.Host, port)
	if err != nil {
		regErr := &api.RegistrationError{Alias: alias, Err: err}
		r.recordFailure(regErr)
		logging.Error("StubRunner", regErr, "Collaborator %s is serving on port %d but is not discoverable", alias, port)
		return r.collaboratorLocked(), regErr
	}
	r.registration = reg

	logging.Info("StubRunner", "Collaborator %s running on %s:%d (mappings %s)", alias, r.env.Host, port, r.args.MappingsPath)
	return r.collaboratorLocked(), nil
}

func (r *StubRunner) failLocked(err error) error {
	r.state = StateFailed
	r.failure = err
	r.recordFailure(err)
	logging.Error("StubRunner", err, "Collaborator %s failed to start", r.dep.Alias)
	return err
}

func (r *StubRunner) recordFailure(err error) {
	if r.env.Observer != nil {
		r.env.Observer.RecordFailure(r.dep.Alias, api.FailureKind(err))
	}
}

// Stop deregisters the collaborator and stops its mock server. Both steps are
// attempted even if the other fails. Stopping a runner that is not running
// is a no-op.
func (r *StubRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return nil
	}

	alias := r.dep.Alias
	var errs []error
	// A failed Register may still have written the entry.
	if err := r.env.Registry.Deregister(ctx, alias); err != nil {
		errs = append(errs, &api.DeregistrationError{Alias: alias, Err: err})
	} else {
		r.registration = nil
	}

	if err := r.server.Stop(ctx); err != nil {
		errs = append(errs, &api.StopError{Alias: alias, Err: err})
	}
	r.env.Allocator.Release(r.port)

	r.state = StateStopped
	if r.env.Observer != nil {
		r.env.Observer.RecordStopped(alias)
	}
	logging.Debug("StubRunner", "Collaborator %s stopped", alias)
	return errors.Join(errs...)
}

// WaitForReady blocks until the mock server accepts connections.
func (r *StubRunner) WaitForReady(ctx context.Context) error {
	r.mu.Lock()
	server := r.server
	running := r.state == StateRunning
	r.mu.Unlock()

	if !running {
		return nil
	}
	return server.WaitForReady(ctx)
}
