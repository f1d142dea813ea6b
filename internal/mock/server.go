package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"

	"github.com/rs/cors"
)

// DefaultShutdownTimeout bounds a graceful stop when the caller's context has
// no deadline.
const DefaultShutdownTimeout = 5 * time.Second

// Server is the mock HTTP server of one collaborator.
type Server struct {
	alias       string
	host        string
	mappingsDir string

	handler         *Handler
	cors            bool
	shutdownTimeout time.Duration
	watchDebounce   time.Duration
	watcher         *Watcher

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	port       int
	running    bool
	serveErr   error
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCORS answers CORS requests from every origin.
func WithCORS(enabled bool) ServerOption {
	return func(s *Server) {
		s.cors = enabled
	}
}

// WithShutdownTimeout sets the graceful stop budget.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithWatch reloads mappings while the server runs whenever mapping files
// change. debounce of zero uses the watcher default.
func WithWatch(debounce time.Duration) ServerOption {
	return func(s *Server) {
		s.watchDebounce = debounce
		if s.watchDebounce == 0 {
			s.watchDebounce = DefaultDebounce
		}
	}
}

// WithTrafficRecorder reports every answered request to rec.
func WithTrafficRecorder(rec TrafficRecorder) ServerOption {
	return func(s *Server) {
		s.handler.recorder = rec
	}
}

// NewServer loads the mappings below mappingsDir and returns a stopped server
// for alias.
func NewServer(alias, host, mappingsDir string, opts ...ServerOption) (*Server, error) {
	mappings, err := LoadMappings(mappingsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings for %s: %w", alias, err)
	}

	s := &Server{
		alias:           alias,
		host:            host,
		mappingsDir:     mappingsDir,
		handler:         NewHandler(alias, mappings, nil),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	logging.Debug("MockServer", "Loaded %d mappings for %s from %s", len(mappings), alias, mappingsDir)
	return s, nil
}

// StartOnPort binds host:port and starts serving in the background. A
// listen failure is returned as *api.BindError.
func (s *Server) StartOnPort(ctx context.Context, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.port == port {
			return nil
		}
		return fmt.Errorf("server for %s already running on port %d", s.alias, s.port)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort(s.host, strconv.Itoa(port)))
	if err != nil {
		return &api.BindError{Alias: s.alias, Port: port, Err: err}
	}

	s.listener = listener
	s.port = port
	s.serveErr = nil

	var handler http.Handler = s.handler
	if s.cors {
		handler = cors.AllowAll().Handler(handler)
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := s.httpServer
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mu.Lock()
			s.serveErr = err
			s.mu.Unlock()
			logging.Error("MockServer", err, "Mock server for %s stopped serving", s.alias)
		}
	}()

	if s.watchDebounce > 0 {
		s.watcher = NewWatcher(s.mappingsDir, s.watchDebounce, s.Reload)
		if err := s.watcher.Start(); err != nil {
			logging.WarnErr("MockServer", err, "Mapping watcher for %s could not start, changes will not be picked up", s.alias)
			s.watcher = nil
		}
	}

	s.running = true
	logging.Info("MockServer", "Mock server for %s listening on %s", s.alias, listener.Addr())
	return nil
}

// Stop shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}

	shutdownCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	var stopErr error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		// Force close if graceful shutdown fails
		if closeErr := s.httpServer.Close(); closeErr != nil {
			stopErr = fmt.Errorf("failed to close mock server on port %d: %w", s.port, closeErr)
		}
		logging.Warn("MockServer", "Force closed mock server for %s: %v", s.alias, err)
	}

	s.running = false
	s.httpServer = nil
	s.listener = nil

	logging.Info("MockServer", "Mock server for %s on port %d stopped", s.alias, s.port)
	return stopErr
}

// Reload re-reads the mapping files. On error the current mappings stay
// in place.
func (s *Server) Reload() error {
	mappings, err := LoadMappings(s.mappingsDir)
	if err != nil {
		return err
	}
	s.handler.SetMappings(mappings)
	logging.Info("MockServer", "Reloaded %d mappings for %s", len(mappings), s.alias)
	return nil
}

// Alias returns the collaborator alias.
func (s *Server) Alias() string {
	return s.alias
}

// Host returns the host the server binds.
func (s *Server) Host() string {
	return s.host
}

// Port returns the port the server is listening on
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Mappings returns the mappings currently served.
func (s *Server) Mappings() []*Mapping {
	return s.handler.Mappings()
}

// Err returns the error that ended serving, if any.
func (s *Server) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serveErr
}

// WaitForReady waits for the server to be ready to accept connections
func (s *Server) WaitForReady(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.IsRunning() {
			addr := net.JoinHostPort(s.host, strconv.Itoa(s.Port()))
			conn, err := net.DialTimeout("tcp", addr, time.Second)
			if err == nil {
				conn.Close()
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
