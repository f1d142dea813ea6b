package resolver

import (
	"context"
	"net/http"
	"time"

	"stubrunner/internal/api"
	"stubrunner/internal/config"
)

// DefaultHTTPTimeout bounds every request made to a remote repository.
const DefaultHTTPTimeout = 60 * time.Second

// Resolver turns artifact coordinates into the location of a local copy of
// the artifact.
type Resolver interface {
	Resolve(ctx context.Context, coords api.Coordinates) (api.ArtifactLocation, error)
}

// Option configures the remote resolver.
type Option func(*Remote)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Remote) {
		r.httpClient = client
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Remote) {
		if timeout > 0 {
			r.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New returns the resolver selected by the repository configuration. With
// UseLocal set only the cache is consulted.
func New(cfg config.RepositoryConfig, opts ...Option) Resolver {
	if cfg.UseLocal {
		return NewLocal(cfg.CacheDir)
	}
	if cfg.Timeout > 0 {
		opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	}
	return NewRemote(cfg.Root, cfg.CacheDir, opts...)
}
