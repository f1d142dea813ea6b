package registry

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"stubrunner/internal/config"
)

// Connect builds the registry selected by cfg and checks it can be reached.
func Connect(ctx context.Context, cfg config.RegistryConfig, basePath string) (Registry, error) {
	switch cfg.Backend {
	case config.RegistryBackendRedis, "":
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		reg := NewRedisRegistry(addr, cfg.Password, cfg.DB, basePath)
		if err := reg.Ping(ctx); err != nil {
			reg.Close()
			return nil, err
		}
		return reg, nil
	case config.RegistryBackendNacos:
		return NewNacosRegistry(NacosOptions{
			Servers:   cfg.Nacos.Servers,
			Namespace: cfg.Nacos.Namespace,
			Group:     cfg.Nacos.Group,
			TimeoutMs: cfg.Nacos.TimeoutMs,
			BasePath:  basePath,
		})
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}
