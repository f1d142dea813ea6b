package registry

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"stubrunner/pkg/logging"

	"github.com/alicebob/miniredis"
)

// EmbeddedServer is an in-process coordination service speaking the Redis
// protocol. It keeps everything in memory and is meant for test isolation.
type EmbeddedServer struct {
	srv  *miniredis.Miniredis
	once sync.Once
}

// StartEmbedded starts a server on host:port. Port 0 picks a free port.
func StartEmbedded(host string, port int) (*EmbeddedServer, error) {
	srv := miniredis.NewMiniRedis()
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if err := srv.StartAddr(addr); err != nil {
		return nil, fmt.Errorf("failed to start embedded coordination service on %s: %w", addr, err)
	}
	logging.Info("Registry", "Embedded coordination service listening on %s", srv.Addr())
	return &EmbeddedServer{srv: srv}, nil
}

// Addr returns host:port of the server.
func (e *EmbeddedServer) Addr() string {
	return e.srv.Addr()
}

// Port returns the port the server listens on.
func (e *EmbeddedServer) Port() int {
	port, _ := strconv.Atoi(e.srv.Port())
	return port
}

// Keys returns every key currently stored.
func (e *EmbeddedServer) Keys() []string {
	return e.srv.Keys()
}

// Close stops the server. It is safe to call more than once.
func (e *EmbeddedServer) Close() {
	e.once.Do(func() {
		e.srv.Close()
		logging.Info("Registry", "Embedded coordination service stopped")
	})
}
