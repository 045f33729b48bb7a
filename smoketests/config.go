package smoketests

import (
	"os"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework/resources"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultTimeout = 10 * time.Second

// Config selects which external services the smoke suite checks. A service whose address
// is empty is not tested.
type Config struct {
	Redis    resources.RedisOptions    `yaml:"redis"`
	Consul   resources.ConsulOptions   `yaml:"consul"`
	DynamoDB resources.DynamoDBOptions `yaml:"dynamodb"`
	// Timeout bounds each bootstrap, close and request. Defaults to 10 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// LoadConfig reads a YAML config file. Unknown fields are an error.
func LoadConfig(path string) (Config, error) {
	var config Config
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return config, errors.Wrap(err, "opening config file")
	}
	defer f.Close() //nolint:errcheck

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, errors.Wrapf(err, "parsing config file %s", path)
	}
	return config, nil
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) hasDynamoDB() bool {
	return c.DynamoDB.Endpoint != "" || c.DynamoDB.Region != ""
}
