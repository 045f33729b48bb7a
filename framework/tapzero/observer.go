package tapzero

import (
	"github.com/launchdarkly/tap-test-harness/framework"
)

// Observer is notified as a run progresses. Observers never affect the report; they are
// for side channels such as debug logging or metrics. AssertionRecorded may be called
// from a goroutine started by the test body.
type Observer interface {
	TestStarted(name string)
	AssertionRecorded(test string, a Assertion)
	TestFinished(result TestResult)
}

type nullObserver struct{}

func (n nullObserver) TestStarted(string)                  {}
func (n nullObserver) AssertionRecorded(string, Assertion) {}
func (n nullObserver) TestFinished(TestResult)             {}

// MultiObserver forwards every notification to each of Observers in order.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) TestStarted(name string) {
	for _, o := range m.Observers {
		o.TestStarted(name)
	}
}

func (m MultiObserver) AssertionRecorded(test string, a Assertion) {
	for _, o := range m.Observers {
		o.AssertionRecorded(test, a)
	}
}

func (m MultiObserver) TestFinished(result TestResult) {
	for _, o := range m.Observers {
		o.TestFinished(result)
	}
}

// LoggingObserver writes a debug line for each test and each failed assertion.
type LoggingObserver struct {
	Logger framework.Logger
}

func (l LoggingObserver) TestStarted(name string) {
	l.Logger.Printf("[%s] started", name)
}

func (l LoggingObserver) AssertionRecorded(test string, a Assertion) {
	if !a.Passed {
		l.Logger.Printf("[%s] assertion %d failed (%s): %s", test, a.ID, a.Operator, a.Description)
	}
}

func (l LoggingObserver) TestFinished(result TestResult) {
	if result.Err != nil {
		l.Logger.Printf("[%s] finished with error: %s", result.Name, result.Err)
		return
	}
	l.Logger.Printf("[%s] finished: %d passed, %d failed", result.Name, result.Pass, result.Fail)
}
