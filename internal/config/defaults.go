package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultPortRangeMin = 10000
	DefaultPortRangeMax = 15000

	DefaultRepositoryRoot = "https://repo.stubrunner.dev/stubs"
	DefaultStubsGroup     = "io.stubrunner"
	DefaultStubsModule    = "stub-definitions"
	DefaultHTTPTimeout    = 60 * time.Second

	DefaultRegistryHost = "127.0.0.1"
	DefaultRegistryPort = 2181
	DefaultNacosGroup   = "DEFAULT_GROUP"

	DefaultMockServerHost  = "127.0.0.1"
	DefaultShutdownTimeout = 5 * time.Second
)

// DefaultCacheDir returns ~/.stubrunner/repository, or a directory below the
// system temp dir when no home directory is available.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "stubrunner", "repository")
	}
	return filepath.Join(home, ".stubrunner", "repository")
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() StubRunnerConfig {
	return StubRunnerConfig{
		PortRange: PortRangeConfig{
			Min: DefaultPortRangeMin,
			Max: DefaultPortRangeMax,
		},
		Repository: RepositoryConfig{
			Root:     DefaultRepositoryRoot,
			Group:    DefaultStubsGroup,
			Module:   DefaultStubsModule,
			UseLocal: false,
			CacheDir: DefaultCacheDir(),
			Timeout:  DefaultHTTPTimeout,
		},
		Registry: RegistryConfig{
			Backend:  RegistryBackendRedis,
			Host:     DefaultRegistryHost,
			Port:     DefaultRegistryPort,
			Embedded: true,
			Nacos: NacosConfig{
				Group: DefaultNacosGroup,
			},
		},
		MockServer: MockServerConfig{
			Host:            DefaultMockServerHost,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
