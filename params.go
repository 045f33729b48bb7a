package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/launchdarkly/tap-test-harness/smoketests"
)

type commandParams struct {
	configFile       string
	streamAddr       string
	metricsAddr      string
	debug            bool
	debugLogFile     string
	redisAddr        string
	consulAddr       string
	dynamoDBEndpoint string
	dynamoDBRegion   string
	timeout          time.Duration
}

func (c *commandParams) Read(args []string) bool {
	return c.read(args, os.Stderr)
}

func (c *commandParams) read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.configFile, "config", "", "YAML file describing the services to test")
	fs.StringVar(&c.streamAddr, "stream", "", "address to serve the live report stream on, such as localhost:8222")
	fs.StringVar(&c.metricsAddr, "metrics", "", "address to serve Prometheus metrics on, such as localhost:9222")
	fs.BoolVar(&c.debug, "debug", false, "write debug logging to standard error")
	fs.StringVar(&c.debugLogFile, "debug-log", "", "write debug logging to this file, rotating it as it grows")
	fs.StringVar(&c.redisAddr, "redis", "", "Redis host:port to test")
	fs.StringVar(&c.consulAddr, "consul", "", "Consul agent address to test")
	fs.StringVar(&c.dynamoDBEndpoint, "dynamodb-endpoint", "", "DynamoDB endpoint to test, such as a DynamoDB Local URL")
	fs.StringVar(&c.dynamoDBRegion, "dynamodb-region", "", "AWS region for DynamoDB")
	fs.DurationVar(&c.timeout, "timeout", 0, "timeout for each service operation (default 10s)")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return false
	}
	return true
}

// smokeConfig loads the config file, if any, and applies the command line on top of it.
func (c *commandParams) smokeConfig() (smoketests.Config, error) {
	var config smoketests.Config
	if c.configFile != "" {
		var err error
		if config, err = smoketests.LoadConfig(c.configFile); err != nil {
			return config, err
		}
	}
	if c.redisAddr != "" {
		config.Redis.Addr = c.redisAddr
	}
	if c.consulAddr != "" {
		config.Consul.Address = c.consulAddr
	}
	if c.dynamoDBEndpoint != "" {
		config.DynamoDB.Endpoint = c.dynamoDBEndpoint
	}
	if c.dynamoDBRegion != "" {
		config.DynamoDB.Region = c.dynamoDBRegion
	}
	if c.timeout > 0 {
		config.Timeout = c.timeout
	}
	return config, nil
}
