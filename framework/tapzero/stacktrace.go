package tapzero

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const anonymousFunction = "<anonymous>"

// Frame is one call site from a captured stack.
type Frame struct {
	Package  string
	Function string
	File     string
	Line     int
}

// FramePredicate decides whether a frame belongs to the harness itself. The first frame
// for which it returns false is reported as the location of a failed assertion.
type FramePredicate func(Frame) bool

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Label is the short function name shown in reports, such as "mypkg.TestThing.func1".
func (f Frame) Label() string {
	if f.Function == "" {
		return anonymousFunction
	}
	if f.Package == "" {
		return f.Function
	}
	return f.Package[strings.LastIndex(f.Package, "/")+1:] + "." + f.Function
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.Label(), f.File, f.Line)
}

// DefaultInternalFrame matches frames from this package and from the Go runtime.
func DefaultInternalFrame(f Frame) bool {
	return f.Package == ownPackage || f.Package == "runtime"
}

// ownPackage is resolved once since every assertion failure needs it.
var ownPackage = currentPackageName() //nolint:gochecknoglobals

func framesOf(st errors.StackTrace) []Frame {
	frames := make([]Frame, 0, len(st))
	for _, f := range st {
		// pkg/errors stores return addresses; step back into the call instruction
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			frames = append(frames, Frame{File: "unknown"})
			continue
		}
		file, line := fn.FileLine(pc)
		packageName, functionName := parsePackageAndFunctionName(fn.Name())
		frames = append(frames, Frame{Package: packageName, Function: functionName, File: file, Line: line})
	}
	return frames
}

// stackOf returns the frames carried by err, or nil if it has none.
func stackOf(err error) []Frame {
	var st stackTracer
	if !errors.As(err, &st) {
		return nil
	}
	return framesOf(st.StackTrace())
}

func firstExternalFrame(frames []Frame, internal FramePredicate) (Frame, bool) {
	for _, f := range frames {
		if !internal(f) {
			return f, true
		}
	}
	return Frame{}, false
}

func currentPackageName() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	packageName, _ := parsePackageAndFunctionName(f.Name())
	return packageName
}

func parsePackageAndFunctionName(fullName string) (string, string) {
	lastSlash := strings.LastIndex(fullName, "/")
	firstDotAfterSlash := strings.Index(fullName[lastSlash+1:], ".")
	if firstDotAfterSlash < 0 {
		return "", fullName
	}
	packageName := fullName[0 : lastSlash+firstDotAfterSlash+1]
	functionName := fullName[len(packageName)+1:]
	return packageName, functionName
}
