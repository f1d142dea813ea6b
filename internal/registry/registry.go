// Package registry publishes running mock servers in a coordination service
// so that service-discovery lookups by alias reach the stub.
//
// Two backends exist. The redis backend stores one JSON record per alias
// under stubrunner:<basePath>/<alias> and can run against an in-process
// server (EmbeddedServer). The nacos backend registers an ephemeral instance
// per alias with a Nacos naming service.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stubrunner/internal/api"
)

// KeyPrefix starts every key written by the redis backend.
const KeyPrefix = "stubrunner:"

// ErrNotFound is returned by Lookup for an alias that is not registered.
var ErrNotFound = errors.New("registration not found")

// Registration is the published address of one collaborator.
type Registration struct {
	ID           string    `json:"id"`
	Alias        string    `json:"alias"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	BasePath     string    `json:"basePath,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Collaborator returns the registration as a running collaborator view.
func (r *Registration) Collaborator() api.Collaborator {
	return api.Collaborator{Alias: r.Alias, Host: r.Host, Port: r.Port, Registered: true}
}

// String renders alias=host:port.
func (r *Registration) String() string {
	return fmt.Sprintf("%s=%s", r.Alias, r.Collaborator().Address())
}

// Registry is the client side of the coordination service. One instance is
// shared by all runners of a batch.
type Registry interface {
	// Register publishes host:port under alias, replacing an earlier entry.
	Register(ctx context.Context, alias, host string, port int) (*Registration, error)
	// Deregister removes alias. Removing an absent alias is not an error.
	Deregister(ctx context.Context, alias string) error
	// Lookup returns the registration of alias or an error wrapping ErrNotFound.
	Lookup(ctx context.Context, alias string) (*Registration, error)
	// List returns every registration visible under the base path.
	List(ctx context.Context) ([]*Registration, error)
	Close() error
}

// Key returns the redis key of alias under basePath.
func Key(basePath, alias string) string {
	return scopePrefix(basePath) + alias
}

func scopePrefix(basePath string) string {
	if basePath == "" {
		return KeyPrefix
	}
	return KeyPrefix + basePath + "/"
}
