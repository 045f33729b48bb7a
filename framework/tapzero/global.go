package tapzero

import (
	"io"
	"os"
	"sync"

	"github.com/launchdarkly/tap-test-harness/framework/helpers"
)

var (
	defaultRunner     *Runner   //nolint:gochecknoglobals
	defaultRunnerOnce sync.Once //nolint:gochecknoglobals
)

// Default returns the process-wide runner used by the package-level functions. It is
// created on first use with default settings and is never replaced.
func Default() *Runner {
	defaultRunnerOnce.Do(func() {
		defaultRunner = NewRunner()
	})
	return defaultRunner
}

// Test registers a test on the default runner.
func Test(name string, fn Func) { Default().Test(name, fn) }

// Only registers an only-mode test on the default runner.
func Only(name string, fn Func) { Default().Only(name, fn) }

// Skip registers nothing.
func Skip(name string, fn Func) { Default().Skip(name, fn) }

// Wait runs the default runner. See (*Runner).Wait.
func Wait() (Results, error) { return Default().Wait() }

// Main runs the default runner and exits the process with status 1 if any assertion
// failed or any test body returned an error. It is meant to be the last call in a
// program's main function.
func Main() {
	os.Exit(exitCode(Default(), os.Stderr))
}

// exitCode waits on r and returns the status Main exits with, describing body errors on
// errOut.
func exitCode(r *Runner, errOut io.Writer) int {
	results, err := r.Wait()
	if err != nil {
		helpers.MustFprintln(errOut, err)
		return 1
	}
	return helpers.IfElse(results.OK(), 0, 1)
}
