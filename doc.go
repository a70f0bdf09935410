// Package gostreams provides composable asynchronous stream combinators.
//
// A Stream is an ordered, possibly infinite sequence of data events
// interleaved with error events, terminated by at most one done event.
// Streams are constructed from a source (see FromSlice, FromChannel) and
// transformed by combinators such as Throttle, Debounce, Scan, SwitchLatest,
// Merge and CombineLatest into a derived output stream, subject to the
// subscription protocol: Listen, Pause, Resume, Cancel.
//
// The library distinguishes single-subscription streams, which accept one
// active subscription at a time and support Pause/Resume, from broadcast
// streams, which fan events out to any number of concurrent listeners and
// treat Pause/Resume as a no-op. A combinator's output is broadcast iff its
// primary input is broadcast, unless documented otherwise on the combinator.
//
// Every combinator reduces to either the Handle primitive (a source wrapped
// with pluggable data/error/done handlers writing into a shared sink) or a
// direct implementation of the subscription protocol. The trigger-driven
// buffering combinators (Buffer, Sample, AsyncMapBuffer, AsyncMapSample) are
// built on the trigger-aggregate primitive in trigger.go; the timer-driven
// ones (Throttle, Audit, Debounce, DebounceBuffer) run their own timers.
// Errors are non-terminal: after an operator forwards an error
// to its output it keeps forwarding subsequent events, exactly as its
// upstream would.
package gostreams
