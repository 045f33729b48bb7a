package helpers

import (
	"fmt"
	"io"
)

// MustFprintln is fmt.Fprintln for output that has nowhere to report a write failure.
func MustFprintln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		panic(err)
	}
}
