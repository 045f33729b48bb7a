package tapzero

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/exp/slices"
)

var consoleFailedColor = color.New(color.FgRed)      //nolint:gochecknoglobals
var consoleAllPassedColor = color.New(color.FgGreen) //nolint:gochecknoglobals

// Sink receives report lines in order. A line never contains a newline.
type Sink func(lines ...string)

// WriterSink writes each line followed by a newline. Write errors are ignored.
func WriterSink(w io.Writer) Sink {
	return func(lines ...string) {
		for _, line := range lines {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

// ConsoleSink writes to standard output, coloring failures red and the final "# ok" green
// when the output is a terminal.
func ConsoleSink() Sink {
	return func(lines ...string) {
		for _, line := range lines {
			switch {
			case strings.HasPrefix(line, "not ok "):
				_, _ = consoleFailedColor.Fprintln(os.Stdout, line)
			case line == "# ok":
				_, _ = consoleAllPassedColor.Fprintln(os.Stdout, line)
			default:
				_, _ = fmt.Fprintln(os.Stdout, line)
			}
		}
	}
}

// MultiSink sends every batch of lines to each sink in turn. Nil sinks are skipped.
func MultiSink(sinks ...Sink) Sink {
	return func(lines ...string) {
		for _, s := range sinks {
			if s != nil {
				s(lines...)
			}
		}
	}
}

// Collector keeps every line it receives. It is safe for concurrent use.
type Collector struct {
	lines []string
	lock  sync.Mutex
}

func (c *Collector) Sink() Sink {
	return func(lines ...string) {
		c.lock.Lock()
		c.lines = append(c.lines, lines...)
		c.lock.Unlock()
	}
}

func (c *Collector) Lines() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.lines)
}

// String returns the collected report as it would appear on a console.
func (c *Collector) String() string {
	lines := c.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
