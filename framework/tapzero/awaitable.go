package tapzero

import (
	"golang.org/x/sync/errgroup"
)

// Func is a test body. It returns nil when it finishes synchronously, or an Awaitable that
// the runner waits on before the test is considered finished.
type Func func(t *T) Awaitable

// Awaitable is anything whose completion can be waited for. *errgroup.Group satisfies it.
type Awaitable interface {
	Wait() error
}

type awaitFunc func() error

func (f awaitFunc) Wait() error { return f() }

// Settled returns an Awaitable that is already complete with the given error.
func Settled(err error) Awaitable {
	return awaitFunc(func() error { return err })
}

// Chan returns an Awaitable that completes when ch delivers a value or is closed.
func Chan(ch <-chan error) Awaitable {
	return awaitFunc(func() error { return <-ch })
}

// Go starts each function on its own goroutine and returns the group they belong to.
// Waiting on the group returns the first error; a panic in any function is converted to
// an error instead of crashing the process.
func Go(fns ...func() error) *errgroup.Group {
	var g errgroup.Group
	for _, fn := range fns {
		g.Go(recovering(fn))
	}
	return &g
}

func recovering(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if late, ok := r.(*LateAssertionError); ok {
					panic(late)
				}
				err = panicError(r)
			}
		}()
		return fn()
	}
}
