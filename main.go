package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/harness"
	"github.com/launchdarkly/tap-test-harness/framework/resources"
	"github.com/launchdarkly/tap-test-harness/framework/tapmetrics"
	"github.com/launchdarkly/tap-test-harness/framework/tapstream"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"
	"github.com/launchdarkly/tap-test-harness/smoketests"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	serverShutdownTimeout = time.Second * 5
	debugLogMaxSizeMB     = 10
	debugLogMaxBackups    = 3
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	// standard output carries the TAP report, so everything else goes to standard error
	fmt.Fprintf(os.Stderr, "tap-test-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (tapzero.Results, error) {
	config, err := params.smokeConfig()
	if err != nil {
		return tapzero.Results{}, err
	}

	debugLogger, closeLog := newDebugLogger(params)
	defer closeLog()

	sinks := []tapzero.Sink{tapzero.ConsoleSink()}
	options := []tapzero.RunnerOption{
		tapzero.WithObserver(tapzero.LoggingObserver{Logger: debugLogger}),
		tapzero.WithLogger(debugLogger),
		tapzero.WithInternalFrame(harness.InternalFrame),
	}

	if params.streamAddr != "" {
		stream := tapstream.NewServer(framework.LoggerWithPrefix(debugLogger, "[stream] "))
		stop, err := serve(params.streamAddr, stream.Handler(), debugLogger, "report stream", "/report")
		if err != nil {
			return tapzero.Results{}, err
		}
		defer stop()
		defer stream.Close()
		sinks = append(sinks, stream.Sink())
	}

	if params.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		stop, err := serve(params.metricsAddr, tapmetrics.Handler(registry), debugLogger, "metrics", "/metrics")
		if err != nil {
			return tapzero.Results{}, err
		}
		defer stop()
		options = append(options, tapzero.WithObserver(tapmetrics.NewObserver(registry)))
	}

	options = append(options, tapzero.WithSink(tapzero.MultiSink(sinks...)))
	runner := tapzero.NewRunner(options...)
	smoketests.Register(runner, config, debugLogger)
	return runner.Wait()
}

// serve runs handler on address until the returned function is called.
func serve(address string, handler http.Handler, debugLogger framework.Logger, what, path string) (func(), error) {
	server := resources.NewHTTPServer(resources.HTTPServerOptions{
		Handler: handler,
		Address: address,
		Logger:  framework.LoggerWithPrefix(debugLogger, "["+what+"] "),
	}, nil)
	if err := server.Bootstrap(context.Background()); err != nil {
		return nil, fmt.Errorf("cannot start %s server: %w", what, err)
	}
	fmt.Fprintf(os.Stderr, "Serving %s at %s\n", what, server.URL(path))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := server.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stop %s server: %s\n", what, err)
		}
	}, nil
}

// newDebugLogger returns the logger for everything that is not part of the report, and a
// function that releases it.
func newDebugLogger(params commandParams) (framework.Logger, func()) {
	var out io.Writer
	closer := func() {}
	switch {
	case params.debugLogFile != "":
		file := &lumberjack.Logger{
			Filename:   params.debugLogFile,
			MaxSize:    debugLogMaxSizeMB,
			MaxBackups: debugLogMaxBackups,
		}
		out = file
		closer = func() { _ = file.Close() }
	case params.debug:
		out = os.Stderr
	default:
		return framework.NullLogger(), closer
	}
	loggers := ldlog.NewDefaultLoggers()
	loggers.SetBaseLogger(log.New(out, "", log.LstdFlags|log.Lmicroseconds))
	loggers.SetMinLevel(ldlog.Debug)
	return loggers.ForLevel(ldlog.Debug), closer
}
