// Package internal contains test helpers for tapzero.
package internal

import (
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"
)

// FailVia is used only in unit tests, but exported because it has to be in a separate package
// for stack frame tests.
func FailVia(t *tapzero.T, msg string) {
	t.Fail(msg)
}
