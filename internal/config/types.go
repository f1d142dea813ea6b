package config

import (
	"sort"
	"time"

	"stubrunner/internal/api"
)

// StubRunnerConfig is the top-level configuration structure for stubrunner.
type StubRunnerConfig struct {
	PortRange    PortRangeConfig             `yaml:"portRange"`
	Repository   RepositoryConfig            `yaml:"repository"`
	Registry     RegistryConfig              `yaml:"registry"`
	MockServer   MockServerConfig            `yaml:"mockServer"`
	Logging      LoggingConfig               `yaml:"logging"`
	BasePath     string                      `yaml:"basePath,omitempty"`   // Scopes registry keys (default: none)
	Descriptor   string                      `yaml:"descriptor,omitempty"` // Optional microservice descriptor file
	Dependencies map[string]DependencyConfig `yaml:"dependencies,omitempty"`
}

// PortRangeConfig bounds the ports mock servers may bind.
type PortRangeConfig struct {
	Min int `yaml:"min"` // Lower bound, inclusive (default: 10000)
	Max int `yaml:"max"` // Upper bound, inclusive (default: 15000)
}

// Size returns the number of ports in the range.
func (p PortRangeConfig) Size() int {
	if p.Max < p.Min {
		return 0
	}
	return p.Max - p.Min + 1
}

// RepositoryConfig locates the stub-definitions artifact.
type RepositoryConfig struct {
	Root     string        `yaml:"root"`               // Remote repository base URL
	Group    string        `yaml:"group"`              // Artifact group, dot separated
	Module   string        `yaml:"module"`             // Artifact module
	Version  string        `yaml:"version,omitempty"`  // Pinned version (default: latest)
	UseLocal bool          `yaml:"useLocal"`           // Resolve from the local cache only
	CacheDir string        `yaml:"cacheDir,omitempty"` // Local cache (default: ~/.stubrunner/repository)
	StubsDir string        `yaml:"stubsDir,omitempty"` // Pre-extracted stubs, skips resolution
	Timeout  time.Duration `yaml:"timeout,omitempty"`  // HTTP client timeout (default: 60s)
}

// Coordinates returns the artifact coordinates described by the configuration.
func (r RepositoryConfig) Coordinates() api.Coordinates {
	coords := api.NewCoordinates(r.Group, r.Module)
	if r.Version != "" {
		coords = coords.WithVersion(r.Version)
	}
	return coords
}

const (
	// RegistryBackendRedis stores registrations in a Redis-protocol server.
	RegistryBackendRedis = "redis"
	// RegistryBackendNacos registers instances with a Nacos naming service.
	RegistryBackendNacos = "nacos"
)

// RegistryConfig defines the coordination service mock servers are published to.
type RegistryConfig struct {
	Backend  string      `yaml:"backend"`            // redis or nacos (default: redis)
	Host     string      `yaml:"host"`               // Coordination service host (default: 127.0.0.1)
	Port     int         `yaml:"port"`               // Coordination service port (default: 2181)
	Embedded bool        `yaml:"embedded"`           // Start an in-process server (redis only, default: true)
	Password string      `yaml:"password,omitempty"` // Redis AUTH password
	DB       int         `yaml:"db,omitempty"`       // Redis database
	Nacos    NacosConfig `yaml:"nacos,omitempty"`
}

// NacosConfig holds the options of the Nacos registry backend.
type NacosConfig struct {
	Servers   []string `yaml:"servers,omitempty"` // host:port of the Nacos servers
	Namespace string   `yaml:"namespace,omitempty"`
	Group     string   `yaml:"group,omitempty"` // (default: DEFAULT_GROUP)
	TimeoutMs uint64   `yaml:"timeoutMs,omitempty"`
}

// MockServerConfig tunes the mock HTTP servers.
type MockServerConfig struct {
	Host            string        `yaml:"host"`                      // Advertised and bound host (default: 127.0.0.1)
	CORS            bool          `yaml:"cors"`                      // Answer CORS preflights for every origin
	Watch           bool          `yaml:"watch"`                     // Reload mappings when files change
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"` // Graceful stop budget (default: 5s)
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}

// DependencyConfig is one entry of the dependency map, keyed by alias.
type DependencyConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DependencyList returns the dependency map as typed descriptors, sorted by
// alias so that batches start in a stable order. It does not validate; use
// Validate for that.
func (c StubRunnerConfig) DependencyList() []api.Dependency {
	aliases := make([]string, 0, len(c.Dependencies))
	for alias := range c.Dependencies {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	deps := make([]api.Dependency, 0, len(aliases))
	for _, alias := range aliases {
		deps = append(deps, api.Dependency{
			Alias:        alias,
			MappingsPath: c.Dependencies[alias].Path,
		})
	}
	return deps
}
