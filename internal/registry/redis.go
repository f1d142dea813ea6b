package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"stubrunner/pkg/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRegistry stores registrations in a Redis-protocol server.
type RedisRegistry struct {
	client   *redis.Client
	basePath string
}

// NewRedisRegistry creates a registry talking to the server at addr.
func NewRedisRegistry(addr, password string, db int, basePath string) *RedisRegistry {
	return NewRedisRegistryWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), basePath)
}

// NewRedisRegistryWithClient wraps an existing client.
func NewRedisRegistryWithClient(client *redis.Client, basePath string) *RedisRegistry {
	return &RedisRegistry{client: client, basePath: basePath}
}

// Ping checks that the server is reachable.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("error connecting to coordination service at %s: %w", r.client.Options().Addr, err)
	}
	return nil
}

func (r *RedisRegistry) Register(ctx context.Context, alias, host string, port int) (*Registration, error) {
	reg := &Registration{
		ID:           uuid.NewString(),
		Alias:        alias,
		Host:         host,
		Port:         port,
		BasePath:     r.basePath,
		RegisteredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration of %s: %w", alias, err)
	}

	key := Key(r.basePath, alias)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}
	logging.Debug("Registry", "Registered %s at %s", key, net.JoinHostPort(host, strconv.Itoa(port)))
	return reg, nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, alias string) error {
	key := Key(r.basePath, alias)
	removed, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if removed == 0 {
		logging.Debug("Registry", "Nothing registered under %s", key)
		return nil
	}
	logging.Debug("Registry", "Deregistered %s", key)
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, alias string) (*Registration, error) {
	key := Key(r.basePath, alias)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", alias, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return decodeRegistration(key, data)
}

// List returns the registrations of this base path sorted by alias.
func (r *RedisRegistry) List(ctx context.Context) ([]*Registration, error) {
	keys, err := r.client.Keys(ctx, scopePrefix(r.basePath)+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	var regs []*Registration
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		reg, err := decodeRegistration(key, data)
		if err != nil {
			logging.Warn("Registry", "Skipping unreadable entry %s: %v", key, err)
			continue
		}
		// the pattern also matches nested base paths
		if Key(r.basePath, reg.Alias) != key {
			continue
		}
		regs = append(regs, reg)
	}

	sort.Slice(regs, func(i, j int) bool { return regs[i].Alias < regs[j].Alias })
	return regs, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func decodeRegistration(key string, data []byte) (*Registration, error) {
	var reg Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("invalid registration in %s: %w", key, err)
	}
	return &reg, nil
}
