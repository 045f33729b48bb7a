package tapzero_test

import (
	"regexp"

	"github.com/launchdarkly/tap-test-harness/framework/tapzero"
)

var (
	atLine     = regexp.MustCompile(`(?m)^    at:       .*$`)
	stackBlock = regexp.MustCompile(`(?m)^(    stack:    \|-\n)(?:      .*\n)+`)
)

// normalize replaces the parts of a report that depend on source locations.
func normalize(report string) string {
	report = atLine.ReplaceAllString(report, "    at:       $$AT")
	return stackBlock.ReplaceAllString(report, "${1}      $$STACK\n")
}

func newTestRunner(options ...tapzero.RunnerOption) (*tapzero.Runner, *tapzero.Collector) {
	var c tapzero.Collector
	return tapzero.NewRunner(append([]tapzero.RunnerOption{tapzero.WithSink(c.Sink())}, options...)...), &c
}
