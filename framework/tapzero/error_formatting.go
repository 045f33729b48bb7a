package tapzero

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// inlineValueLimit is the widest rendering of expected or actual that stays on the
// "expected:" / "actual:" line. Anything wider switches both values to block form.
const inlineValueLimit = 65

const (
	blockIndent = "      "
	stackIndent = "    at "
)

// renderValue pretty-prints a value the way it appears in a diagnostic block. An untyped
// nil has no JSON form and is shown as "undefined".
func renderValue(v any) string {
	if v == nil {
		return "undefined"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// failure holds everything needed to describe one failed assertion.
type failure struct {
	operator string
	actual   any
	expected any
	at       error // synthetic error captured at the assertion call
}

// diagnosticLines renders the YAML-like block that follows a "not ok" line.
func (f failure) diagnosticLines(internal FramePredicate) []string {
	actual := f.actual
	message := f.at.Error()
	frames := stackOf(f.at)
	if err, ok := actual.(error); ok && !isNullish(err) {
		message = err.Error()
		actual = message
		if own := stackOf(err); own != nil {
			frames = own
		}
	}

	ex, ac := renderValue(f.expected), renderValue(actual)
	var text []string
	text = append(text, "  ---", "    operator: "+f.operator)
	if max(utf8.RuneCountInString(ex), utf8.RuneCountInString(ac)) > inlineValueLimit {
		text = append(text,
			"    expected: |-\n"+blockIndent+indentLines(ex),
			"    actual:   |-\n"+blockIndent+indentLines(ac),
		)
	} else {
		text = append(text, "    expected: "+ex, "    actual:   "+ac)
	}

	if at, ok := firstExternalFrame(stackOf(f.at), internal); ok {
		text = append(text, "    at:       "+at.String())
	}

	text = append(text, "    stack:    |-", blockIndent+indentLines(message))
	for _, frame := range frames {
		text = append(text, blockIndent+stackIndent+frame.String())
	}
	text = append(text, "  ...")

	// values may span lines; every emitted entry is a single physical line
	return splitLines(text)
}

func indentLines(s string) string {
	return strings.ReplaceAll(s, "\n", "\n"+blockIndent)
}

func splitLines(text []string) []string {
	lines := make([]string, 0, len(text))
	for _, t := range text {
		lines = append(lines, strings.Split(t, "\n")...)
	}
	return lines
}
