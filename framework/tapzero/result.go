package tapzero

// Results summarizes a finished run.
type Results struct {
	Total int
	Pass  int
	Fail  int
	Tests []TestResult
}

// TestResult is the outcome of one test. Err is set if the test body panicked or its
// Awaitable returned an error.
type TestResult struct {
	Name string
	Pass int
	Fail int
	Err  error
}

// Assertion describes one recorded outcome. It is handed to observers and then
// discarded; the report line has already been produced.
type Assertion struct {
	ID          int64
	Passed      bool
	Actual      any
	Expected    any
	Description string
	Operator    string
}

func (r Results) OK() bool {
	return r.Fail == 0
}

func (r TestResult) OK() bool {
	return r.Fail == 0 && r.Err == nil
}
