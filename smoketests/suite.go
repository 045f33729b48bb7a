package smoketests

import (
	"context"
	"io"
	"net/http"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/harness"
	"github.com/launchdarkly/tap-test-harness/framework/resources"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// Register adds the smoke tests to runner. The HTTP tests are always registered; the
// others only when cfg names the service they need.
func Register(runner *tapzero.Runner, cfg Config, logger framework.Logger) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	timeout := cfg.timeout()

	httpSuite := harness.NewSuite(runner, resources.NewHTTPServer, harness.Config[resources.HTTPServerOptions]{
		Defaults: resources.HTTPServerOptions{Logger: framework.LoggerWithPrefix(logger, "[http] ")},
		Timeout:  timeout,
		Logger:   logger,
	})
	httpSuite.Test("http echo", func(s *resources.HTTPServer, t *tapzero.T) tapzero.Awaitable {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, body, err := get(ctx, s.URL("/foo"))
		if err != nil {
			t.IfError(err, "request failed")
			return nil
		}
		t.Equal(status, http.StatusOK, "status")
		t.Equal(body, "/foo", "body")
		return nil
	})
	httpSuite.Test("http echo async", func(s *resources.HTTPServer, t *tapzero.T) tapzero.Awaitable {
		return tapzero.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			status, body, err := get(ctx, s.URL("/bar?x=1"))
			if err != nil {
				return err
			}
			t.Equal(status, http.StatusOK, "status")
			t.Equal(body, "/bar?x=1", "body")
			return nil
		})
	})

	if cfg.Redis.Addr != "" {
		registerRedis(runner, cfg, logger)
	}
	if cfg.Consul.Address != "" {
		registerConsul(runner, cfg, logger)
	}
	if cfg.hasDynamoDB() {
		registerDynamoDB(runner, cfg, logger)
	}
}

func registerRedis(runner *tapzero.Runner, cfg Config, logger framework.Logger) {
	options := cfg.Redis
	options.Logger = framework.LoggerWithPrefix(logger, "[redis] ")
	suite := harness.NewSuite(runner, resources.NewRedis, harness.Config[resources.RedisOptions]{
		Defaults: options,
		Timeout:  cfg.timeout(),
		Logger:   logger,
	})
	suite.Test("redis round trip", func(r *resources.Redis, t *tapzero.T) tapzero.Awaitable {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout())
		defer cancel()
		key := r.Key("greeting")
		t.IfError(r.Client().Set(ctx, key, "hello", 0).Err(), "set")
		value, err := r.Client().Get(ctx, key).Result()
		t.IfError(err, "get")
		t.Equal(value, "hello", "value")
		return nil
	})
}

func registerConsul(runner *tapzero.Runner, cfg Config, logger framework.Logger) {
	options := cfg.Consul
	options.Logger = framework.LoggerWithPrefix(logger, "[consul] ")
	suite := harness.NewSuite(runner, resources.NewConsul, harness.Config[resources.ConsulOptions]{
		Defaults: options,
		Timeout:  cfg.timeout(),
		Logger:   logger,
	})
	suite.Test("consul kv round trip", func(c *resources.Consul, t *tapzero.T) tapzero.Awaitable {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout())
		defer cancel()
		key := c.Key("greeting")
		_, err := c.KV().Put(&consul.KVPair{Key: key, Value: []byte("hello")}, (&consul.WriteOptions{}).WithContext(ctx))
		t.IfError(err, "put")
		pair, _, err := c.KV().Get(key, (&consul.QueryOptions{}).WithContext(ctx))
		t.IfError(err, "get")
		t.Ok(pair != nil, "key exists")
		if pair != nil {
			t.Equal(string(pair.Value), "hello", "value")
		}
		return nil
	})
}

func registerDynamoDB(runner *tapzero.Runner, cfg Config, logger framework.Logger) {
	options := cfg.DynamoDB
	options.Logger = framework.LoggerWithPrefix(logger, "[dynamodb] ")
	suite := harness.NewSuite(runner, resources.NewDynamoDB, harness.Config[resources.DynamoDBOptions]{
		Defaults: options,
		Timeout:  cfg.timeout(),
		Logger:   logger,
	})
	suite.Test("dynamodb table", func(d *resources.DynamoDB, t *tapzero.T) tapzero.Awaitable {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout())
		defer cancel()
		out, err := d.Client().DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(d.Table()),
		})
		if err != nil {
			t.IfError(err, "describe table")
			return nil
		}
		t.Equal(aws.StringValue(out.Table.TableName), d.Table(), "table name")
		t.Equal(aws.StringValue(out.Table.TableStatus), dynamodb.TableStatusActive, "table status")
		return nil
	})
}

func get(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", errors.WithStack(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", errors.Wrap(err, "reading response body")
	}
	return resp.StatusCode, string(body), nil
}
