package harness

import (
	"context"
	"sync"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"
)

// Resource is something a test needs to have running. Bootstrap and Close each get a
// context that is cancelled when the Suite's timeout for that step expires.
type Resource interface {
	Bootstrap(ctx context.Context) error
	Close(ctx context.Context) error
}

// Factory creates a resource for one test. The test handle is passed so that the
// resource can make its own assertions.
type Factory[O any, R Resource] func(options O, t *tapzero.T) R

// Func is a test body that receives a bootstrapped resource.
type Func[R Resource] func(r R, t *tapzero.T) tapzero.Awaitable

// Config holds the settings of a Suite.
type Config[O any] struct {
	// Defaults are the options passed to the factory by Test and Only.
	Defaults O
	// Timeout bounds each Bootstrap and Close call. Zero means no limit.
	Timeout time.Duration
	// Logger receives close errors that could not be reported as assertions.
	Logger framework.Logger
}

// Suite registers resource-backed tests on a tapzero.Runner.
type Suite[O any, R Resource] struct {
	runner  *tapzero.Runner
	factory Factory[O, R]
	config  Config[O]
}

// NewSuite creates a Suite. If runner is nil, tests go to tapzero.Default().
func NewSuite[O any, R Resource](runner *tapzero.Runner, factory Factory[O, R], config Config[O]) *Suite[O, R] {
	if runner == nil {
		runner = tapzero.Default()
	}
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	return &Suite[O, R]{runner: runner, factory: factory, config: config}
}

// Test registers a test that uses a resource created with the default options. A nil fn
// registers nothing.
func (s *Suite[O, R]) Test(name string, fn Func[R]) {
	s.TestWith(name, s.config.Defaults, fn)
}

// TestWith is like Test but passes options to the factory instead of the defaults.
func (s *Suite[O, R]) TestWith(name string, options O, fn Func[R]) {
	if fn != nil {
		s.runner.Test(name, s.wrap(options, fn))
	}
}

func (s *Suite[O, R]) Only(name string, fn Func[R]) {
	s.OnlyWith(name, s.config.Defaults, fn)
}

func (s *Suite[O, R]) OnlyWith(name string, options O, fn Func[R]) {
	if fn != nil {
		s.runner.Only(name, s.wrap(options, fn))
	}
}

// Skip registers nothing.
func (s *Suite[O, R]) Skip(name string, fn Func[R]) {
	s.runner.Skip(name, nil)
}

func (s *Suite[O, R]) wrap(options O, fn Func[R]) tapzero.Func {
	return func(t *tapzero.T) tapzero.Awaitable {
		if err := s.execute(options, fn, t); err != nil {
			return tapzero.Settled(err)
		}
		return nil
	}
}

// execute runs one resource lifecycle. Bootstrap and close failures become IfError
// assertions. An error or panic from the body is passed on to the runner after the
// resource has been closed; a close error at that point can only be logged.
func (s *Suite[O, R]) execute(options O, fn Func[R], t *tapzero.T) error {
	r := s.factory(options, t)

	var closeOnce sync.Once
	var closeErr error
	closeResource := func() error {
		closeOnce.Do(func() {
			ctx, cancel := s.stepContext()
			defer cancel()
			closeErr = r.Close(ctx)
		})
		return closeErr
	}

	defer func() {
		if p := recover(); p != nil {
			if err := closeResource(); err != nil {
				s.config.Logger.Printf("[%s] close failed after panic: %s", t.Name(), err)
			}
			panic(p)
		}
	}()

	ctx, cancel := s.stepContext()
	err := r.Bootstrap(ctx)
	cancel()
	if err != nil {
		t.IfError(err)
		if err := closeResource(); err != nil {
			t.IfError(err)
		}
		return nil
	}

	if err := await(fn(r, t)); err != nil {
		if closeErr := closeResource(); closeErr != nil {
			s.config.Logger.Printf("[%s] close failed after test error: %s", t.Name(), closeErr)
		}
		return err
	}

	if err := closeResource(); err != nil {
		t.IfError(err)
	}
	return nil
}

func (s *Suite[O, R]) stepContext() (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.config.Timeout)
	}
	return context.WithCancel(context.Background())
}

func await(aw tapzero.Awaitable) error {
	if aw == nil {
		return nil
	}
	return aw.Wait()
}
