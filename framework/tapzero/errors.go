package tapzero

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// LateAssertionError is the panic value raised when an assertion is made on a test that
// has already finished. It usually means a goroutine outlived the test body that
// started it.
type LateAssertionError struct {
	Test string
}

func (e *LateAssertionError) Error() string {
	return "assertion occurred after test was finished: " + e.Test
}

// TestFailure is an error that escaped a test body, either as a panic or from the
// body's Awaitable.
type TestFailure struct {
	Name string
	Err  error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.Name, f.Err)
}

func (f TestFailure) Unwrap() error { return f.Err }

// BodyErrors is returned by Wait when one or more test bodies failed with an error. Each
// of those errors has also been reported as a failing assertion.
type BodyErrors struct {
	Failures []TestFailure
}

func (e *BodyErrors) Error() string {
	lines := []string{fmt.Sprintf("%d test bodies failed:", len(e.Failures))}
	for _, f := range e.Failures {
		lines = append(lines, "  "+f.Error())
	}
	return strings.Join(lines, "\n")
}

func (e *BodyErrors) Unwrap() []error {
	ret := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		ret = append(ret, f)
	}
	return ret
}

// panicError converts a recovered panic value into an error. It must be called from the
// deferred function so the captured stack includes the panicking frame.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.WithStack(errors.WithMessage(err, "panic"))
	}
	return errors.Errorf("panic: %v", r)
}
