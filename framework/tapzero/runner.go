package tapzero

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/helpers"
)

type runState int

const (
	stateIdle runState = iota
	stateScheduled
	stateRunning
	stateDone
)

// RunnerConfig holds the settings applied by RunnerOption values.
type RunnerConfig struct {
	// Sink receives the report. Defaults to ConsoleSink.
	Sink Sink
	// Observers are notified of test and assertion events.
	Observers []Observer
	// Logger receives debug output that is not part of the report.
	Logger framework.Logger
	// InternalFrame identifies stack frames that belong to the harness. Defaults to
	// DefaultInternalFrame.
	InternalFrame FramePredicate
}

type RunnerOption helpers.ConfigOption[RunnerConfig]

// WithSink directs the report to sink instead of standard output.
func WithSink(sink Sink) RunnerOption {
	return helpers.ConfigOptionFunc[RunnerConfig](func(c *RunnerConfig) error {
		c.Sink = sink
		return nil
	})
}

// WithObserver adds an observer. It can be used more than once.
func WithObserver(o Observer) RunnerOption {
	return helpers.ConfigOptionFunc[RunnerConfig](func(c *RunnerConfig) error {
		c.Observers = append(c.Observers, o)
		return nil
	})
}

func WithLogger(logger framework.Logger) RunnerOption {
	return helpers.ConfigOptionFunc[RunnerConfig](func(c *RunnerConfig) error {
		c.Logger = logger
		return nil
	})
}

// WithInternalFrame replaces the predicate that decides which stack frames are skipped
// when locating a failed assertion. Helper packages that wrap T can use this to point
// the "at:" line at their caller.
func WithInternalFrame(internal FramePredicate) RunnerOption {
	return helpers.ConfigOptionFunc[RunnerConfig](func(c *RunnerConfig) error {
		c.InternalFrame = internal
		return nil
	})
}

// Runner collects tests and runs them once, in registration order, writing a TAP version 13
// report to its sink. A Runner cannot be reused after it has run.
//
// Registering a test schedules the run, but the run itself only starts when Wait is
// called. If any test was registered with Only, the tests registered without it are
// ignored entirely.
type Runner struct {
	config    RunnerConfig
	observer  Observer
	lastID    atomic.Int64
	tests     []*T
	onlyTests []*T
	state     runState
	lock      sync.Mutex
	runOnce   sync.Once
	results   Results
	err       error
}

func NewRunner(options ...RunnerOption) *Runner {
	var config RunnerConfig
	_ = helpers.ApplyOptions[RunnerConfig, RunnerOption](&config, options...)
	if config.Sink == nil {
		config.Sink = ConsoleSink()
	}
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	if config.InternalFrame == nil {
		config.InternalFrame = DefaultInternalFrame
	}
	r := &Runner{config: config}
	switch len(config.Observers) {
	case 0:
		r.observer = nullObserver{}
	case 1:
		r.observer = config.Observers[0]
	default:
		r.observer = MultiObserver{Observers: config.Observers}
	}
	return r
}

// Test registers a test. A nil fn registers nothing.
func (r *Runner) Test(name string, fn Func) {
	if fn != nil {
		r.Add(name, fn, false)
	}
}

// Only registers a test in only-mode. A nil fn registers nothing.
func (r *Runner) Only(name string, fn Func) {
	if fn != nil {
		r.Add(name, fn, true)
	}
}

// Skip registers nothing. It exists so a test can be disabled by renaming one call.
func (r *Runner) Skip(name string, fn Func) {
	r.config.Logger.Printf("skipping %q", name)
}

// Add registers a test and schedules the run if it is not scheduled yet. Tests added while
// the run is in progress are run as part of it if they went to the set that was selected
// when the run started. Tests added after the run has finished are dropped.
func (r *Runner) Add(name string, fn Func, only bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.state == stateDone {
		r.config.Logger.Printf("test %q was registered after the run finished and will not run", name)
		return
	}
	t := newT(name, fn, r)
	if only {
		r.onlyTests = append(r.onlyTests, t)
	} else {
		r.tests = append(r.tests, t)
	}
	if r.state == stateIdle {
		r.state = stateScheduled
	}
}

// Wait ends the registration phase, runs the scheduled tests in the calling goroutine and
// returns the results once the summary has been written. Later calls return the same
// results without running anything. If nothing was registered, nothing is reported.
//
// The error is a *BodyErrors if any test body panicked or its Awaitable returned an
// error. Ordinary assertion failures are not errors; check Results.OK.
func (r *Runner) Wait() (Results, error) {
	r.runOnce.Do(func() {
		r.lock.Lock()
		scheduled := r.state == stateScheduled
		if scheduled {
			r.state = stateRunning
		} else {
			r.state = stateDone
		}
		r.lock.Unlock()
		if scheduled {
			r.results, r.err = r.run()
		}
	})
	return r.results, r.err
}

func (r *Runner) run() (Results, error) {
	r.lock.Lock()
	only := len(r.onlyTests) > 0
	r.lock.Unlock()

	r.emit("TAP version 13")

	var results Results
	var failures []TestFailure
	for i := 0; ; i++ {
		t := r.testAt(only, i)
		if t == nil {
			break
		}
		r.observer.TestStarted(t.name)
		result, lines := t.execute()
		r.emit(lines...)
		r.observer.TestFinished(result)

		results.Tests = append(results.Tests, result)
		results.Total += result.Pass + result.Fail
		results.Pass += result.Pass
		results.Fail += result.Fail
		if result.Err != nil {
			failures = append(failures, TestFailure{Name: result.Name, Err: result.Err})
		}
	}

	r.lock.Lock()
	r.state = stateDone
	r.lock.Unlock()

	summary := []string{
		"",
		fmt.Sprintf("1..%d", results.Total),
		fmt.Sprintf("# tests %d", results.Total),
		fmt.Sprintf("# pass  %d", results.Pass),
	}
	if results.Fail > 0 {
		summary = append(summary, fmt.Sprintf("# fail  %d", results.Fail))
	} else {
		summary = append(summary, "", "# ok")
	}
	r.emit(summary...)

	if len(failures) > 0 {
		return results, &BodyErrors{Failures: failures}
	}
	return results, nil
}

// testAt re-reads the selected set on every step so that tests registered by a running
// test are picked up.
func (r *Runner) testAt(only bool, i int) *T {
	r.lock.Lock()
	defer r.lock.Unlock()
	tests := helpers.IfElse(only, r.onlyTests, r.tests)
	if i >= len(tests) {
		return nil
	}
	return tests[i]
}

func (r *Runner) nextID() int64 {
	return r.lastID.Add(1)
}

func (r *Runner) emit(lines ...string) {
	r.config.Sink(lines...)
}
