// Package tapzero is a minimal test harness that reports in TAP version 13.
//
// Tests are registered with Test or Only, either on the process-wide default runner or on
// a Runner created with NewRunner. Nothing runs until the registration phase ends with
// Wait (or Main); then each test runs to completion, in registration order, and its
// report lines are written as a block once it finishes. Assertion lines are numbered by
// a single counter that is shared by every test in the run.
//
//	func main() {
//		tapzero.Test("addition", func(t *tapzero.T) tapzero.Awaitable {
//			t.Equal(1+1, 2)
//			return nil
//		})
//		tapzero.Main()
//	}
package tapzero
