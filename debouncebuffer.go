package gostreams

import (
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
)

// DebounceBuffer collects every event of a burst into a list and emits that
// list once the burst ends (d of silence). Trailing-only: it never emits
// leading.
func DebounceBuffer[T any](source Stream[T], d time.Duration, opts ...Option) Stream[[]T] {
	aggregate := func(v T, soFar []T) []T { return append(soFar, v) }
	return debounceEngine[T, []T](source, d, false, true, aggregate, clock.Real(), resolveOptions(opts...), "debounce_buffer")
}
