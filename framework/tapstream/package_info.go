// Package tapstream publishes the lines of a TAP report as a Server-Sent Events stream, so
// that a dashboard or another process can follow a run while it is in progress.
//
// Each line becomes one "line" event whose data is a JSON object {"run", "seq", "text"}.
// A subscriber that connects late is first sent every line emitted so far.
package tapstream
