package gostreams

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrDoubleListen is the value panicked when a second listener attaches to a
// single-subscription output while another listener is still attached. It
// is not wrapped and not recovered: a double listen is a programming error.
var ErrDoubleListen = errors.New("gostreams: stream already has an active subscription")

// ErrLimitReached is a sentinel for a caller-imposed element limit. No
// function in this package returns it; Limit closes its output without an
// error.
var ErrLimitReached = errors.New("gostreams: limit reached")

// ErrShortCircuit is a generic sentinel for stopping consumption early. No
// function in this package returns it and Each gives it no special
// treatment; AnyMatch and AllMatch stop by returning false from their
// consumer instead.
var ErrShortCircuit = errors.New("gostreams: short circuit")

// TracedError wraps an error event with the call stack captured at the point
// the error entered the stream, the "trace" companion of an error event.
// It is attached to error events raised by user callbacks (combine,
// predicate, convert), whether returned or recovered from a panic, and is
// optional otherwise (Tap swallows its callbacks' panics instead):
// upstream errors that already carry their own context are forwarded without
// a synthesized trace.
type TracedError struct {
	Err   error
	Stack []uintptr
}

// Error implements error.
func (t *TracedError) Error() string {
	if t == nil || t.Err == nil {
		return "gostreams: traced error"
	}
	return t.Err.Error()
}

// Unwrap allows errors.Is/errors.As to see through the trace wrapper.
func (t *TracedError) Unwrap() error {
	if t == nil {
		return nil
	}
	return t.Err
}

// Frames returns the captured stack frames, for diagnostics.
func (t *TracedError) Frames() *runtime.Frames {
	if t == nil || len(t.Stack) == 0 {
		return runtime.CallersFrames(nil)
	}
	return runtime.CallersFrames(t.Stack)
}

func captureTrace(err error) *TracedError {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return &TracedError{Err: err, Stack: pcs[:n]}
}

// recoverAsError turns a panic in a user callback into a stream error rather
// than crashing the operator's goroutine: user-callback errors are
// forwarded as stream errors and the operator continues.
func recoverAsError[T any](out *sink[T]) {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("gostreams: panic in user callback: %v", r)
		}
		out.addError(err, captureTrace(err))
	}
}
