package smoketests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
redis:
  addr: localhost:6379
  prefix: smoke
consul:
  address: http://localhost:8500
dynamodb:
  endpoint: http://localhost:8000
  region: us-west-2
timeout: 5s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "smoke", cfg.Redis.Prefix)
	assert.Equal(t, "http://localhost:8500", cfg.Consul.Address)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	assert.Equal(t, "us-west-2", cfg.DynamoDB.Region)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.timeout())
	assert.True(t, cfg.hasDynamoDB())
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, "redis:\n  address: localhost\n"))
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultTimeout(t *testing.T) {
	assert.Equal(t, defaultTimeout, Config{}.timeout())
	assert.False(t, Config{}.hasDynamoDB())
}
