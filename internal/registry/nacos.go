package registry

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"stubrunner/pkg/logging"

	"github.com/google/uuid"
	"github.com/nacos-group/nacos-sdk-go/clients"
	"github.com/nacos-group/nacos-sdk-go/common/constant"
	"github.com/nacos-group/nacos-sdk-go/model"
	"github.com/nacos-group/nacos-sdk-go/vo"
)

const (
	defaultNacosTimeoutMs = uint64(5000)
	defaultNacosWeight    = float64(10)
	nacosCluster          = "DEFAULT"
)

// namingClient is the part of the Nacos naming client the registry uses.
type namingClient interface {
	RegisterInstance(param vo.RegisterInstanceParam) (bool, error)
	DeregisterInstance(param vo.DeregisterInstanceParam) (bool, error)
	SelectOneHealthyInstance(param vo.SelectOneHealthInstanceParam) (*model.Instance, error)
}

// NacosOptions configure the Nacos backend.
type NacosOptions struct {
	Servers   []string // host:port
	Namespace string
	Group     string
	TimeoutMs uint64
	BasePath  string
}

// NacosRegistry registers one ephemeral instance per alias. The alias is the
// service name; the base path travels in the instance metadata.
type NacosRegistry struct {
	client   namingClient
	group    string
	basePath string

	mu         sync.Mutex
	registered map[string]*Registration
}

// NewNacosRegistry creates a naming client for the configured servers.
func NewNacosRegistry(opts NacosOptions) (*NacosRegistry, error) {
	serverConfigs, err := nacosServerConfigs(opts.Servers)
	if err != nil {
		return nil, err
	}
	timeout := opts.TimeoutMs
	if timeout == 0 {
		timeout = defaultNacosTimeoutMs
	}

	client, err := clients.CreateNamingClient(map[string]interface{}{
		"serverConfigs": serverConfigs,
		"clientConfig": constant.ClientConfig{
			TimeoutMs:           timeout,
			NotLoadCacheAtStart: true,
			NamespaceId:         opts.Namespace,
			LogDir:              "/dev/null",
			LogLevel:            "error",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nacos client: %w", err)
	}
	return newNacosRegistry(client, opts.Group, opts.BasePath), nil
}

func newNacosRegistry(client namingClient, group, basePath string) *NacosRegistry {
	return &NacosRegistry{
		client:     client,
		group:      group,
		basePath:   basePath,
		registered: make(map[string]*Registration),
	}
}

func (n *NacosRegistry) Register(ctx context.Context, alias, host string, port int) (*Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg := &Registration{
		ID:           uuid.NewString(),
		Alias:        alias,
		Host:         host,
		Port:         port,
		BasePath:     n.basePath,
		RegisteredAt: time.Now().UTC(),
	}

	ok, err := n.client.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          host,
		Port:        uint64(port),
		ServiceName: alias,
		GroupName:   n.group,
		ClusterName: nacosCluster,
		Weight:      defaultNacosWeight,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata: map[string]string{
			"preserved.register.source": "GO",
			"stubrunner.id":             reg.ID,
			"stubrunner.basePath":       n.basePath,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register %s with nacos: %w", alias, err)
	}
	if !ok {
		return nil, fmt.Errorf("nacos rejected registration of %s", alias)
	}

	n.mu.Lock()
	n.registered[alias] = reg
	n.mu.Unlock()

	logging.Debug("Registry", "Registered nacos service %s at %s:%d", alias, host, port)
	return reg, nil
}

func (n *NacosRegistry) Deregister(ctx context.Context, alias string) error {
	n.mu.Lock()
	reg, ok := n.registered[alias]
	n.mu.Unlock()
	if !ok {
		return nil
	}

	_, err := n.client.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          reg.Host,
		Port:        uint64(reg.Port),
		Cluster:     nacosCluster,
		ServiceName: alias,
		GroupName:   n.group,
		Ephemeral:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to deregister %s from nacos: %w", alias, err)
	}

	n.mu.Lock()
	delete(n.registered, alias)
	n.mu.Unlock()
	return nil
}

func (n *NacosRegistry) Lookup(ctx context.Context, alias string) (*Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	instance, err := n.client.SelectOneHealthyInstance(vo.SelectOneHealthInstanceParam{
		ServiceName: alias,
		GroupName:   n.group,
		Clusters:    []string{nacosCluster},
	})
	if err != nil || instance == nil {
		return nil, fmt.Errorf("%s: %w", alias, ErrNotFound)
	}

	reg := &Registration{
		ID:       instance.Metadata["stubrunner.id"],
		Alias:    alias,
		Host:     instance.Ip,
		Port:     int(instance.Port),
		BasePath: instance.Metadata["stubrunner.basePath"],
	}
	return reg, nil
}

// List returns the registrations made through this client. The naming
// service is not queried.
func (n *NacosRegistry) List(ctx context.Context) ([]*Registration, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	regs := make([]*Registration, 0, len(n.registered))
	for _, reg := range n.registered {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Alias < regs[j].Alias })
	return regs, nil
}

// Close deregisters whatever is still registered.
func (n *NacosRegistry) Close() error {
	regs, _ := n.List(context.Background())
	for _, reg := range regs {
		if err := n.Deregister(context.Background(), reg.Alias); err != nil {
			logging.WarnErr("Registry", err, "Leaving stale nacos instance for %s", reg.Alias)
		}
	}
	return nil
}

func nacosServerConfigs(servers []string) ([]constant.ServerConfig, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nacos servers configured")
	}
	var configs []constant.ServerConfig
	for _, server := range servers {
		host, portStr, err := net.SplitHostPort(strings.TrimSpace(server))
		if err != nil {
			return nil, fmt.Errorf("invalid nacos server %q: %w", server, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid nacos server port %q: %w", server, err)
		}
		configs = append(configs, constant.ServerConfig{
			IpAddr: host,
			Port:   port,
		})
	}
	return configs, nil
}
