package resources

import (
	"context"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/google/uuid"
	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

type ConsulOptions struct {
	// Address of the Consul agent. Defaults to the consul client's own default, which honors
	// CONSUL_HTTP_ADDR.
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
	// Prefix is the KV tree owned by the resource. Defaults to a unique value.
	Prefix string           `yaml:"prefix"`
	Logger framework.Logger `yaml:"-"`
}

// Consul is a client for a Consul agent that owns one KV subtree, which is deleted when the
// resource is closed.
type Consul struct {
	options ConsulOptions
	client  *consul.Client
	logger  framework.Logger
}

func NewConsul(options ConsulOptions, _ *tapzero.T) *Consul {
	if options.Prefix == "" {
		options.Prefix = "tapzero/" + uuid.NewString()
	}
	logger := options.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Consul{options: options, logger: logger}
}

func (c *Consul) Bootstrap(ctx context.Context) error {
	config := consul.DefaultConfig()
	if c.options.Address != "" {
		config.Address = c.options.Address
	}
	if c.options.Token != "" {
		config.Token = c.options.Token
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return errors.Wrap(err, "creating Consul client")
	}
	leader, err := client.Status().LeaderWithQueryOptions((&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "querying Consul at %s", config.Address)
	}
	if leader == "" {
		return errors.Errorf("Consul at %s has no leader", config.Address)
	}
	c.client = client
	c.logger.Printf("Connected to Consul at %s (leader %s), KV prefix %q", config.Address, leader, c.options.Prefix)
	return nil
}

// KV returns the KV client. It is only valid between Bootstrap and Close.
func (c *Consul) KV() *consul.KV { return c.client.KV() }

// Key returns the full KV path for key under the resource's prefix.
func (c *Consul) Key(key string) string {
	return c.options.Prefix + "/" + key
}

func (c *Consul) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	_, err := c.client.KV().DeleteTree(c.options.Prefix+"/", (&consul.WriteOptions{}).WithContext(ctx))
	return errors.Wrapf(err, "deleting Consul KV tree %q", c.options.Prefix)
}
