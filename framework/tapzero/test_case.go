package tapzero

import (
	"fmt"
	"sync"

	"github.com/launchdarkly/tap-test-harness/framework/helpers"

	"github.com/pkg/errors"
)

// T is the handle passed to a test body. Its assertion methods record one outcome each
// and may be called from any goroutine until the body (and its Awaitable) completes.
type T struct {
	name   string
	fn     Func
	runner *Runner

	lock  sync.Mutex
	done  bool
	lines []string
	pass  int
	fail  int
}

func newT(name string, fn Func, runner *Runner) *T {
	return &T{name: name, fn: fn, runner: runner, lines: []string{"# " + name}}
}

// Name returns the name the test was registered with.
func (t *T) Name() string { return t.name }

// Equal passes if actual and expected are loosely equal: numbers, numeric strings and
// bools compare by numeric value, nil-like values are all equal to each other, and
// maps, slices, funcs and channels compare by identity.
func (t *T) Equal(actual, expected any, msg ...string) {
	t.assert(looseEqual(actual, expected), actual, expected,
		helpers.FirstNonEmpty("should be equal", msg...), "equal")
}

func (t *T) NotEqual(actual, expected any, msg ...string) {
	t.assert(!looseEqual(actual, expected), actual, expected,
		helpers.FirstNonEmpty("should not be equal", msg...), "notEqual")
}

// DeepEqual passes if actual and expected are structurally equal.
func (t *T) DeepEqual(actual, expected any, msg ...string) {
	t.assert(deepEqual(actual, expected), actual, expected,
		helpers.FirstNonEmpty("should be equivalent", msg...), "deepEqual")
}

func (t *T) NotDeepEqual(actual, expected any, msg ...string) {
	t.assert(!deepEqual(actual, expected), actual, expected,
		helpers.FirstNonEmpty("should not be equivalent", msg...), "notDeepEqual")
}

// Ok passes if actual is truthy: not nil, false, zero, NaN or the empty string.
func (t *T) Ok(actual any, msg ...string) {
	t.assert(truthy(actual), actual, "truthy value",
		helpers.FirstNonEmpty("should be truthy", msg...), "ok")
}

// IfError passes if err is nil. The default description is the error text.
func (t *T) IfError(err error, msg ...string) {
	t.assert(err == nil, err, "no error",
		helpers.FirstNonEmpty(fmt.Sprint(err), msg...), "ifError")
}

// Fail always records a failure.
func (t *T) Fail(msg ...string) {
	t.assert(false, "fail called", "fail not called",
		helpers.FirstNonEmpty("fail called", msg...), "fail")
}

// Comment adds a "# msg" line to the report. It does not count as an assertion.
func (t *T) Comment(msg string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.done {
		t.runner.config.Logger.Printf("comment after %q finished was dropped: %s", t.name, msg)
		return
	}
	t.lines = append(t.lines, "# "+msg)
}

func (t *T) assert(passed bool, actual, expected any, description, operator string) {
	var at error
	if !passed {
		at = errors.New(description)
	}
	t.record(passed, actual, expected, description, operator, at)
}

func (t *T) record(passed bool, actual, expected any, description, operator string, at error) {
	t.lock.Lock()
	if t.done {
		t.lock.Unlock()
		panic(&LateAssertionError{Test: t.name})
	}
	id := t.runner.nextID()
	t.lines = append(t.lines, fmt.Sprintf("%s %d %s", helpers.IfElse(passed, "ok", "not ok"), id, description))
	if passed {
		t.pass++
	} else {
		t.fail++
		f := failure{operator: operator, actual: actual, expected: expected, at: at}
		t.lines = append(t.lines, f.diagnosticLines(t.runner.config.InternalFrame)...)
	}
	t.lock.Unlock()

	t.runner.observer.AssertionRecorded(t.name, Assertion{
		ID:          id,
		Passed:      passed,
		Actual:      actual,
		Expected:    expected,
		Description: description,
		Operator:    operator,
	})
}

// bodyFailed reports an error that escaped the test body. The error's own stack, if it
// has one, locates the failure; otherwise there is no "at:" line.
func (t *T) bodyFailed(err error) {
	t.record(false, err, "no error", err.Error(), "error", err)
}

// run executes the body and waits for its Awaitable. Panics are returned as errors,
// except a LateAssertionError from a nested test which is still fatal.
func (t *T) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if late, ok := r.(*LateAssertionError); ok {
				panic(late)
			}
			err = panicError(r)
		}
	}()
	if aw := t.fn(t); aw != nil {
		return aw.Wait()
	}
	return nil
}

// execute runs the test to completion and seals it. After this returns, any further
// assertion on t panics.
func (t *T) execute() (TestResult, []string) {
	err := t.run()
	if err != nil {
		t.bodyFailed(err)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.done = true
	return TestResult{Name: t.name, Pass: t.pass, Fail: t.fail, Err: err}, helpers.CopyOf(t.lines)
}
