package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"stubrunner/internal/api"
	"stubrunner/internal/config"
	"stubrunner/internal/metrics"
	"stubrunner/internal/mock"
	"stubrunner/internal/ports"
	"stubrunner/internal/registry"
	"stubrunner/internal/resolver"
	"stubrunner/internal/runner"
	"stubrunner/internal/unpack"
	"stubrunner/pkg/logging"
)

// Application represents the stub runner of one process. It owns the
// embedded coordination service, the registry client, the unpacked stub
// directory and the batch of runners.
type Application struct {
	config  *Config
	metrics *metrics.Metrics

	resolverOpts []resolver.Option
	tempDir      string

	mu       sync.Mutex
	started  bool
	stopped  bool
	embedded *registry.EmbeddedServer
	registry registry.Registry
	stubDir  *unpack.StubDir
	batch    *runner.Batch
}

// Option customizes an Application.
type Option func(*Application)

// WithResolverOptions passes options to the remote resolver.
func WithResolverOptions(opts ...resolver.Option) Option {
	return func(a *Application) {
		a.resolverOpts = append(a.resolverOpts, opts...)
	}
}

// WithTempDir creates unpacked stub directories below dir instead of the
// system temp directory.
func WithTempDir(dir string) Option {
	return func(a *Application) {
		a.tempDir = dir
	}
}

// NewApplication configures logging, loads and validates the configuration
// and returns an application that has not started anything yet.
func NewApplication(cfg *Config, opts ...Option) (*Application, error) {
	// Configure logging based on debug flag
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stderr
	if cfg.Quiet {
		// If quiet mode is enabled, suppress all output
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.StubRunnerConfig == nil {
		sc, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load stubrunner configuration from %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load stubrunner configuration: %w", err)
		}
		cfg.StubRunnerConfig = &sc
	}

	cfg.applyOverrides(cfg.StubRunnerConfig)
	if err := cfg.StubRunnerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.StubRunnerConfig.Logging.Level)
	logging.InitForCLIWithFormat(level, logOutput, logging.Format(cfg.StubRunnerConfig.Logging.Format))

	a := &Application{
		config:  cfg,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// StubRunnerConfig returns the effective configuration.
func (a *Application) StubRunnerConfig() config.StubRunnerConfig {
	return *a.config.StubRunnerConfig
}

// Metrics returns the application's collectors.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// Resolve resolves the configured stub artifact without starting anything.
func (a *Application) Resolve(ctx context.Context) (api.ArtifactLocation, error) {
	sc := a.config.StubRunnerConfig
	r := resolver.New(sc.Repository, a.resolverOpts...)
	return r.Resolve(ctx, sc.Repository.Coordinates())
}

// Start brings up every collaborator. A returned error means nothing is
// running (apart from the coordination service, which Stop releases).
// Failures of single collaborators are in the report.
func (a *Application) Start(ctx context.Context) (*runner.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return nil, errors.New("application already started")
	}
	a.started = true
	sc := a.config.StubRunnerConfig

	if sc.Registry.Embedded && sc.Registry.Backend == config.RegistryBackendRedis {
		srv, err := registry.StartEmbedded(sc.Registry.Host, sc.Registry.Port)
		if err != nil {
			return nil, err
		}
		a.embedded = srv
	}

	reg, err := registry.Connect(ctx, sc.Registry, sc.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coordination service: %w", err)
	}
	a.registry = reg

	stubDir, err := a.prepareStubs(ctx)
	if err != nil {
		logging.Error("Bootstrap", err, "Aborting before any collaborator is started")
		return nil, err
	}
	a.stubDir = stubDir

	allocator, err := ports.NewAllocator(sc.PortRange.Min, sc.PortRange.Max)
	if err != nil {
		return nil, err
	}

	serverOpts := []mock.ServerOption{
		mock.WithCORS(sc.MockServer.CORS),
		mock.WithShutdownTimeout(sc.MockServer.ShutdownTimeout),
		mock.WithTrafficRecorder(a.metrics),
	}
	if sc.MockServer.Watch {
		serverOpts = append(serverOpts, mock.WithWatch(0))
	}

	env := &runner.Environment{
		Host:          sc.MockServer.Host,
		Allocator:     allocator,
		Registry:      reg,
		Observer:      a.metrics,
		ServerOptions: serverOpts,
	}
	base := runner.NewArguments(stubDir.Path, "", sc.Registry.Port, sc.PortRange.Min, sc.PortRange.Max,
		sc.BasePath, []string{sc.Repository.Coordinates().String()})

	deps := sc.DependencyList()
	a.batch = runner.Build(deps, base, env)
	logging.Info("Bootstrap", "Starting %d collaborators in port range [%d, %d]", len(deps), sc.PortRange.Min, sc.PortRange.Max)

	return a.batch.RunAll(ctx), nil
}

// prepareStubs returns the directory the mappings are read from.
func (a *Application) prepareStubs(ctx context.Context) (*unpack.StubDir, error) {
	sc := a.config.StubRunnerConfig
	if sc.Repository.StubsDir != "" {
		info, err := os.Stat(sc.Repository.StubsDir)
		if err != nil || !info.IsDir() {
			return nil, &api.UnpackError{Location: sc.Repository.StubsDir, Err: fmt.Errorf("stubs directory not usable: %w", err)}
		}
		logging.Info("Bootstrap", "Serving stubs from %s, artifact resolution skipped", sc.Repository.StubsDir)
		return unpack.ExistingStubDir(sc.Repository.StubsDir), nil
	}

	begin := time.Now()
	location, err := a.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	dir, err := unpack.New(a.tempDir).Unpack(ctx, location)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveResolution(time.Since(begin).Seconds())
	return dir, nil
}

// Running returns the collaborators currently serving.
func (a *Application) Running() []api.Collaborator {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.batch == nil {
		return nil
	}
	return a.batch.Running()
}

// WaitForReady blocks until every running mock server accepts connections.
func (a *Application) WaitForReady(ctx context.Context) error {
	a.mu.Lock()
	batch := a.batch
	a.mu.Unlock()
	if batch == nil {
		return nil
	}
	return batch.WaitForReady(ctx)
}

// Registry returns the registry client, or nil before Start.
func (a *Application) Registry() registry.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry
}

// Stop releases everything Start acquired. Only the first call does
// anything.
func (a *Application) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return nil
	}
	a.stopped = true

	var errs []error
	if a.batch != nil {
		if err := a.batch.CloseAll(ctx).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close registry client: %w", err))
		}
	}
	if a.embedded != nil {
		a.embedded.Close()
	}
	if a.stubDir != nil {
		if err := a.stubDir.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove stub directory %s: %w", a.stubDir.Path, err))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		logging.Warn("Bootstrap", "Shutdown finished with errors: %v", err)
		return err
	}
	logging.Info("Bootstrap", "Shutdown complete")
	return nil
}
