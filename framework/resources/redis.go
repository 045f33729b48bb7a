package resources

import (
	"context"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisScanBatchSize = 100

type RedisOptions struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Prefix is prepended to every key built with Key. Defaults to a unique value per
	// resource so that concurrent runs against one server do not collide.
	Prefix string           `yaml:"prefix"`
	Logger framework.Logger `yaml:"-"`
}

// Redis is a connection to a Redis server. Every key under its prefix is deleted when the
// resource is closed.
type Redis struct {
	options RedisOptions
	client  *redis.Client
	logger  framework.Logger
}

func NewRedis(options RedisOptions, _ *tapzero.T) *Redis {
	if options.Prefix == "" {
		options.Prefix = "tapzero:" + uuid.NewString()
	}
	logger := options.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Redis{options: options, logger: logger}
}

func (r *Redis) Bootstrap(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.options.Addr,
		Password: r.options.Password,
		DB:       r.options.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return errors.Wrapf(err, "connecting to Redis at %s", r.options.Addr)
	}
	r.client = client
	r.logger.Printf("Connected to Redis at %s with key prefix %q", r.options.Addr, r.options.Prefix)
	return nil
}

// Client returns the underlying client. It is only valid between Bootstrap and Close.
func (r *Redis) Client() *redis.Client { return r.client }

// Key returns the prefixed form of key.
func (r *Redis) Key(key string) string {
	return r.options.Prefix + ":" + key
}

func (r *Redis) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	defer r.client.Close() //nolint:errcheck
	deleted, err := r.deletePrefixed(ctx)
	if err != nil {
		return errors.Wrapf(err, "deleting keys with prefix %q", r.options.Prefix)
	}
	r.logger.Printf("Deleted %d Redis keys with prefix %q", deleted, r.options.Prefix)
	return nil
}

func (r *Redis) deletePrefixed(ctx context.Context) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.options.Prefix+":*", redisScanBatchSize).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
