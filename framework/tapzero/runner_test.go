package tapzero_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinglePassingTest(t *testing.T) {
	r, c := newTestRunner()
	r.Test("one", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(true)
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"TAP version 13",
		"# one",
		"ok 1 should be truthy",
		"",
		"1..1",
		"# tests 1",
		"# pass  1",
		"",
		"# ok",
	}, c.Lines())
	assert.True(t, results.OK())
	assert.Equal(t, 1, results.Total)
	assert.Equal(t, 1, results.Pass)
	assert.Equal(t, 0, results.Fail)
}

func TestFailingTruthinessReport(t *testing.T) {
	r, c := newTestRunner()
	r.Test("truthiness", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(true)
		t.Ok(true, "message")
		t.Ok(false, "some message")
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.False(t, results.OK())
	assert.Equal(t, 3, results.Total)
	assert.Equal(t, 2, results.Pass)
	assert.Equal(t, 1, results.Fail)
	goldie.New(t).Assert(t, "failing_truthiness", []byte(normalize(c.String())))
}

func TestTestsRunInRegistrationOrderWithSharedNumbering(t *testing.T) {
	r, c := newTestRunner()
	r.Test("one", func(t *tapzero.T) tapzero.Awaitable {
		t.Equal(1, 1)
		return nil
	})
	r.Test("two", func(t *tapzero.T) tapzero.Awaitable {
		t.Equal(2, 2)
		t.Equal(3, 3)
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	lines := c.Lines()
	assert.Equal(t, []string{
		"TAP version 13",
		"# one",
		"ok 1 should be equal",
		"# two",
		"ok 2 should be equal",
		"ok 3 should be equal",
	}, lines[:6])
	assert.Contains(t, lines, "1..3")
}

func TestOnlyTestsExcludeOthers(t *testing.T) {
	r, c := newTestRunner()
	ran := map[string]bool{}
	for _, name := range []string{"a", "b"} {
		r.Test(name, func(t *tapzero.T) tapzero.Awaitable {
			ran[name] = true
			t.Fail()
			return nil
		})
	}
	r.Only("focused", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(1)
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Empty(t, ran)
	assert.Equal(t, 1, results.Total)
	assert.Len(t, results.Tests, 1)
	assert.NotContains(t, c.String(), "# a\n")
	assert.True(t, strings.HasSuffix(c.String(), "\n1..1\n# tests 1\n# pass  1\n\n# ok\n"))
}

func TestNilBodyAndSkipRegisterNothing(t *testing.T) {
	r, c := newTestRunner()
	r.Test("no body", nil)
	r.Only("no body either", nil)
	r.Skip("skipped", func(t *tapzero.T) tapzero.Awaitable {
		t.Fail()
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Empty(t, c.Lines())
	assert.Equal(t, tapzero.Results{}, results)
}

func TestCommentDoesNotAffectCounts(t *testing.T) {
	r, c := newTestRunner()
	r.Test("comments", func(t *tapzero.T) tapzero.Awaitable {
		t.Comment("first")
		t.Ok(true)
		t.Comment("second")
		t.Comment("second")
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, results.Total)
	assert.Equal(t, []string{"# comments", "# first", "ok 1 should be truthy", "# second", "# second"},
		c.Lines()[1:6])
}

func TestEqualWithNilActual(t *testing.T) {
	r, c := newTestRunner()
	r.Test("nil", func(t *tapzero.T) tapzero.Awaitable {
		t.Equal(nil, "foo")
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	lines := c.Lines()
	assert.Contains(t, lines, "not ok 1 should be equal")
	assert.Contains(t, lines, "    operator: equal")
	assert.Contains(t, lines, `    expected: "foo"`)
	assert.Contains(t, lines, "    actual:   undefined")
}

func TestLongValuesUseBlockForm(t *testing.T) {
	r, c := newTestRunner()
	r.Test("long values", func(t *tapzero.T) tapzero.Awaitable {
		t.DeepEqual(map[string]string{"key": strings.Repeat("a", 60)}, map[string]string{"key": "b"})
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	goldie.New(t).Assert(t, "block_values", []byte(normalize(c.String())))
}

func TestDefaultMessagesAndOperators(t *testing.T) {
	r, c := newTestRunner()
	r.Test("defaults", func(t *tapzero.T) tapzero.Awaitable {
		t.Equal(1, 2)
		t.NotEqual(1, "1")
		t.DeepEqual([]int{1}, []int{2})
		t.NotDeepEqual([]int{1}, []int{1})
		t.Ok(0)
		t.IfError(errors.New("boom"))
		t.Fail()
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, results.Fail)
	lines := c.Lines()
	for _, expected := range []string{
		"not ok 1 should be equal",
		"    operator: equal",
		"not ok 2 should not be equal",
		"    operator: notEqual",
		"not ok 3 should be equivalent",
		"    operator: deepEqual",
		"not ok 4 should not be equivalent",
		"    operator: notDeepEqual",
		"not ok 5 should be truthy",
		"    operator: ok",
		"not ok 6 boom",
		"    operator: ifError",
		`    expected: "no error"`,
		`    actual:   "boom"`,
		"not ok 7 fail called",
		"    operator: fail",
		`    expected: "fail not called"`,
		`    actual:   "fail called"`,
	} {
		assert.Contains(t, lines, expected)
	}
}

func TestPassingIfErrorUsesNilDescription(t *testing.T) {
	r, c := newTestRunner()
	r.Test("no error", func(t *tapzero.T) tapzero.Awaitable {
		t.IfError(nil)
		t.IfError(nil, "custom")
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok 1 <nil>", "ok 2 custom"}, c.Lines()[2:4])
}

func TestErrorActualUsesItsOwnStack(t *testing.T) {
	r, c := newTestRunner()
	r.Test("error stack", func(t *tapzero.T) tapzero.Awaitable {
		t.IfError(makeError("broken"))
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	report := c.String()
	assert.Contains(t, report, "    stack:    |-\n      broken\n          at tapzero_test.makeError (")
	assert.Regexp(t, `\n    at:       tapzero_test\.TestErrorActualUsesItsOwnStack\.func1 \(.*runner_test\.go:\d+\)\n`, report)
}

func makeError(msg string) error {
	return errors.New(msg)
}

func TestCommentAfterFinishIsDropped(t *testing.T) {
	var logger framework.CapturingLogger
	r, c := newTestRunner(tapzero.WithLogger(&logger))
	var captured *tapzero.T
	r.Test("first", func(t *tapzero.T) tapzero.Awaitable {
		captured = t
		t.Ok(true)
		return nil
	})
	r.Test("second", func(t *tapzero.T) tapzero.Awaitable {
		captured.Comment("too late")
		t.Ok(true)
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	assert.NotContains(t, c.Lines(), "# too late")
	assert.Contains(t, logger.Output(), `comment after "first" finished was dropped: too late`)
}

func TestLateAssertionPanics(t *testing.T) {
	r, _ := newTestRunner()
	var captured *tapzero.T
	r.Test("late", func(t *tapzero.T) tapzero.Awaitable {
		captured = t
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	assert.PanicsWithError(t, "assertion occurred after test was finished: late", func() {
		captured.Ok(true)
	})
}

func TestBodyPanicIsReportedAndRunContinues(t *testing.T) {
	r, c := newTestRunner()
	r.Test("explodes", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(true)
		panic("kaboom")
	})
	r.Test("after", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(true)
		return nil
	})

	results, err := r.Wait()
	var bodyErrors *tapzero.BodyErrors
	require.ErrorAs(t, err, &bodyErrors)
	require.Len(t, bodyErrors.Failures, 1)
	assert.Equal(t, "explodes", bodyErrors.Failures[0].Name)
	assert.EqualError(t, bodyErrors.Failures[0], "[explodes]: panic: kaboom")
	assert.Equal(t, 3, results.Total)
	assert.Equal(t, 1, results.Fail)
	assert.Error(t, results.Tests[0].Err)
	assert.False(t, results.Tests[0].OK())
	assert.True(t, results.Tests[1].OK())
	goldie.New(t).Assert(t, "body_panic", []byte(normalize(c.String())))
}

func TestAwaitableErrorIsReported(t *testing.T) {
	r, c := newTestRunner()
	r.Test("rejects", func(t *tapzero.T) tapzero.Awaitable {
		return tapzero.Settled(errors.New("async failure"))
	})

	_, err := r.Wait()
	assert.EqualError(t, err, "1 test bodies failed:\n  [rejects]: async failure")
	assert.Contains(t, c.Lines(), "not ok 1 async failure")
	assert.Contains(t, c.Lines(), "    operator: error")
}

func TestAssertionsFromGoroutines(t *testing.T) {
	r, _ := newTestRunner()
	r.Test("async", func(t *tapzero.T) tapzero.Awaitable {
		return tapzero.Go(
			func() error {
				t.Ok(true)
				return nil
			},
			func() error {
				t.Equal("a", "a")
				return nil
			},
		)
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, results.Pass)
}

func TestGoRecoversPanics(t *testing.T) {
	err := tapzero.Go(func() error { panic("inside goroutine") }).Wait()
	assert.EqualError(t, err, "panic: inside goroutine")
}

func TestChanAwaitable(t *testing.T) {
	r, _ := newTestRunner()
	ch := make(chan error)
	r.Test("channel", func(t *tapzero.T) tapzero.Awaitable {
		go func() {
			t.Ok(true)
			close(ch)
		}()
		return tapzero.Chan(ch)
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, results.Pass)
}

func TestTestsAddedDuringRunAreRun(t *testing.T) {
	r, c := newTestRunner()
	r.Test("outer", func(t *tapzero.T) tapzero.Awaitable {
		r.Test("added", func(t *tapzero.T) tapzero.Awaitable {
			t.Ok(true)
			return nil
		})
		t.Ok(true)
		return nil
	})

	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, results.Total)
	assert.Equal(t, []string{"# outer", "ok 1 should be truthy", "# added", "ok 2 should be truthy"}, c.Lines()[1:5])
}

func TestTestsAddedAfterRunAreIgnored(t *testing.T) {
	var logger framework.CapturingLogger
	r, c := newTestRunner(tapzero.WithLogger(&logger))
	r.Test("first", func(t *tapzero.T) tapzero.Awaitable { return nil })
	_, err := r.Wait()
	require.NoError(t, err)
	count := len(c.Lines())

	r.Test("late", func(t *tapzero.T) tapzero.Awaitable { return nil })
	results, err := r.Wait()
	require.NoError(t, err)
	assert.Len(t, results.Tests, 1)
	assert.Len(t, c.Lines(), count)
	assert.Len(t, logger.Output(), 1)
}

func TestWaitWithNothingRegistered(t *testing.T) {
	r, c := newTestRunner()
	results, err := r.Wait()
	require.NoError(t, err)
	assert.Equal(t, tapzero.Results{}, results)
	assert.Empty(t, c.Lines())
}

func TestConcurrentWaitRunsOnce(t *testing.T) {
	r, c := newTestRunner()
	r.Test("once", func(t *tapzero.T) tapzero.Awaitable {
		t.Ok(true)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, _ := r.Wait()
			assert.Equal(t, 1, results.Total)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, strings.Count(c.String(), "TAP version 13"))
}

type recordingObserver struct {
	lock   sync.Mutex
	events []string
}

func (o *recordingObserver) add(e string) {
	o.lock.Lock()
	o.events = append(o.events, e)
	o.lock.Unlock()
}

func (o *recordingObserver) TestStarted(name string) { o.add("start " + name) }

func (o *recordingObserver) AssertionRecorded(test string, a tapzero.Assertion) {
	o.add(test + " " + a.Operator + " " + a.Description)
}

func (o *recordingObserver) TestFinished(result tapzero.TestResult) { o.add("finish " + result.Name) }

func TestObserversAreNotified(t *testing.T) {
	var o1, o2 recordingObserver
	var logger framework.CapturingLogger
	r, _ := newTestRunner(
		tapzero.WithObserver(&o1),
		tapzero.WithObserver(&o2),
		tapzero.WithObserver(tapzero.LoggingObserver{Logger: &logger}),
	)
	r.Test("observed", func(t *tapzero.T) tapzero.Awaitable {
		t.Equal(1, 1)
		t.Fail("nope")
		return nil
	})

	_, err := r.Wait()
	require.NoError(t, err)
	expected := []string{"start observed", "observed equal should be equal", "observed fail nope", "finish observed"}
	assert.Equal(t, expected, o1.events)
	assert.Equal(t, expected, o2.events)
	assert.Equal(t, []string{
		"[observed] started",
		"[observed] assertion 2 failed (fail): nope",
		"[observed] finished: 1 passed, 1 failed",
	}, logger.Output())
}
