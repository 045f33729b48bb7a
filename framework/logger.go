package framework

import (
	"fmt"
	"strings"
	"sync"
)

// Logger is the debug-output abstraction used throughout the harness. Nothing written
// to a Logger ever becomes part of the TAP report.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

// CapturingLogger keeps every message in memory. It is mainly useful in tests that
// need to verify what a component logged.
type CapturingLogger struct {
	output []string
	lock   sync.Mutex
}

func (l *CapturingLogger) Println(args ...interface{}) {
	m := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	l.append(m)
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.append(fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) append(m string) {
	l.lock.Lock()
	l.output = append(l.output, m)
	l.lock.Unlock()
}

// Output returns a copy of the captured messages in the order they were logged.
func (l *CapturingLogger) Output() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.output...)
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	if baseLogger == nil {
		baseLogger = NullLogger()
	}
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
