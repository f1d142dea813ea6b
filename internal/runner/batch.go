package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Batch runs a fixed, ordered set of StubRunners as one unit.
type Batch struct {
	runners []*StubRunner

	mu     sync.Mutex
	ran    bool
	closed bool
}

// NewBatch creates a batch over runners.
func NewBatch(runners ...*StubRunner) *Batch {
	return &Batch{runners: runners}
}

// Build creates one runner per dependency. Every runner shares env and gets
// base with its own mappings path.
func Build(deps []api.Dependency, base Arguments, env *Environment) *Batch {
	runners := make([]*StubRunner, 0, len(deps))
	for _, dep := range deps {
		args := NewArguments(base.StubsRootDir, dep.MappingsPath, base.RegistryPort,
			base.MinPort, base.MaxPort, base.BasePath, base.Projects)
		runners = append(runners, NewStubRunner(dep, args, env))
	}
	return NewBatch(runners...)
}

// Runners returns the runners in start order.
func (b *Batch) Runners() []*StubRunner {
	return b.runners
}

// RunAll starts every runner in order. A failing runner does not keep the
// others from starting. Only the first call does anything; later calls
// return an empty report.
func (b *Batch) RunAll(ctx context.Context) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := &Report{}
	if b.ran || b.closed {
		return report
	}
	b.ran = true

	for _, r := range b.runners {
		collab, err := r.Run(ctx)
		if r.State() == StateRunning {
			report.Started = append(report.Started, collab)
		}
		if err != nil {
			report.Failures = append(report.Failures, Outcome{Alias: r.Alias(), Err: err})
		}
	}

	logging.Info("Batch", "Started %d of %d collaborators", len(report.Started), len(b.runners))
	return report
}

// CloseAll stops every runner. Every runner gets its attempt; errors are
// collected and logged once at the end. Only the first call does anything.
func (b *Batch) CloseAll(ctx context.Context) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := &Report{}
	if b.closed {
		return report
	}
	b.closed = true

	for _, r := range b.runners {
		if err := r.Stop(ctx); err != nil {
			report.Failures = append(report.Failures, Outcome{Alias: r.Alias(), Err: err})
		}
	}

	if report.HasFailures() {
		msgs := make([]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			msgs = append(msgs, fmt.Sprintf("%s: %v", f.Alias, f.Err))
		}
		logging.Warn("Batch", "%d of %d collaborators did not stop cleanly: %s",
			len(report.Failures), len(b.runners), strings.Join(msgs, "; "))
	}
	return report
}

// Running returns the collaborators currently serving.
func (b *Batch) Running() []api.Collaborator {
	var running []api.Collaborator
	for _, r := range b.runners {
		if c, ok := r.Collaborator(); ok {
			running = append(running, c)
		}
	}
	return running
}

// Lookup returns the running collaborator with alias.
func (b *Batch) Lookup(alias string) (api.Collaborator, bool) {
	for _, r := range b.runners {
		if r.Alias() == alias {
			return r.Collaborator()
		}
	}
	return api.Collaborator{}, false
}

// WaitForReady waits until every running mock server accepts connections.
func (b *Batch) WaitForReady(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range b.runners {
		g.Go(func() error {
			if err := r.WaitForReady(ctx); err != nil {
				return fmt.Errorf("collaborator %s not ready: %w", r.Alias(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
