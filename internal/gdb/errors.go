package gdb

import (
	"errors"
	"fmt"
)

// ErrSequenceConsumed is yielded when a thread sequence is ranged over a
// second time. Call Threads or ThreadSummary again for a fresh snapshot.
var ErrSequenceConsumed = errors.New("thread sequence already consumed")

// StateDesyncError reports that gdb confirmed a different selection than
// the one requested. The driver never corrects or retries it.
type StateDesyncError struct {
	// Kind is "thread" or "frame".
	Kind      string
	Requested int
	Confirmed int
}

func (e *StateDesyncError) Error() string {
	return fmt.Sprintf("gdb selected %s %d, requested %d", e.Kind, e.Confirmed, e.Requested)
}

// AssertionError reports that the debugged program did not look the way a
// scripted step expected, e.g. the main thread does not start in main().
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

func assertf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}
