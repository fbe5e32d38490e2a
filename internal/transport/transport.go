// Package transport owns a child process's byte streams.
//
// It is pure plumbing: it writes lines, accumulates output and blocks until
// the accumulated bytes match one of a set of patterns, without interpreting
// what the child printed. A PTY transport also supports handing the streams
// to a human operator.
package transport

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Transport is the I/O boundary of a debugger session. A Transport is owned
// by exactly one session; its methods must not be called concurrently.
type Transport interface {
	// SendLine writes line followed by the line terminator.
	SendLine(line string) error

	// Expect reads until the accumulated output matches one of patterns.
	// The earliest match wins, ties go to the pattern listed first. The
	// matched bytes and everything before them are consumed; the remainder
	// stays buffered for the next call.
	Expect(ctx context.Context, patterns ...*regexp.Regexp) (Match, error)

	// Handoff sends marker, waits for its echo, then connects the child to
	// the operator's terminal until the operator leaves or the child's
	// output ends.
	Handoff(ctx context.Context, marker string) HandoffOutcome

	// Close terminates the child and releases its streams.
	Close() error
}

// Match is the result of a successful Expect.
type Match struct {
	// Index is the position of the matching pattern in the argument list.
	Index int
	// Before holds every byte received before the match.
	Before []byte
	// Matched holds the bytes the pattern matched.
	Matched []byte
}

// HandoffResult distinguishes how a handoff ended.
type HandoffResult int

const (
	// HandoffExited means the operator left the session.
	HandoffExited HandoffResult = iota
	// HandoffTransportError means the child's streams ended or failed.
	HandoffTransportError
)

func (r HandoffResult) String() string {
	switch r {
	case HandoffExited:
		return "exited"
	case HandoffTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("HandoffResult(%d)", int(r))
	}
}

// HandoffOutcome reports how a handoff ended. Err is set only for
// HandoffTransportError.
type HandoffOutcome struct {
	Result HandoffResult
	Err    error
}

// EscapeByte ends a handoff and returns control to the driver (Ctrl-]).
const EscapeByte = 0x1d

var (
	// ErrClosed reports that the child's output stream ended.
	ErrClosed = errors.New("end of stream")
	// ErrHandoffUnsupported is returned by transports that cannot share a
	// terminal with the operator.
	ErrHandoffUnsupported = errors.New("handoff not supported by this transport")
)

// Error is a transport failure: the process died, a pipe closed, a read or
// write failed or a wait timed out. It is never retried.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
