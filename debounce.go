package gostreams

import (
	"sync"
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
)

// Debounce emits the first and/or last event of each "burst" — a maximal
// run of events each within d of the previous — once d of silence has
// elapsed (trailing), and/or immediately on the first event of a burst
// (leading). If both are enabled and the burst is a single event, only the
// leading emission happens; emitting as leading suppresses the trailing
// emit for that same burst.
func Debounce[T any](source Stream[T], d time.Duration, leading, trailing bool, opts ...Option) Stream[T] {
	return debounceEngine[T, T](source, d, leading, trailing, func(v T, _ T) T { return v }, clock.Real(), resolveOptions(opts...), "debounce")
}

// debounceEngine implements the shared state machine behind Debounce and
// DebounceBuffer: restart a period timer on every event, folding it into an
// accumulator with aggregate; optionally emit immediately on the first event
// of a burst (leading); optionally emit the accumulator once the timer
// fires with no further events (trailing).
func debounceEngine[T, Acc any](source Stream[T], d time.Duration, leading, trailing bool, aggregate func(v T, soFar Acc) Acc, clk clock.Clock, cfg Options, opName string) Stream[Acc] {
	return relay[Acc](source.Broadcast(), cfg.metrics, func(out *sink[Acc]) Subscription {
		var (
			mu               sync.Mutex
			soFar            Acc
			hasSoFar         bool
			timer            clock.Timer
			emittedAsLeading bool
			sourceDone       bool
		)

		flushLocked := func() Acc {
			v := soFar

			var zero Acc

			soFar = zero
			hasSoFar = false

			return v
		}

		var onFire func()

		onFire = func() {
			mu.Lock()
			shouldEmit := trailing && !emittedAsLeading && hasSoFar

			var v Acc
			if shouldEmit {
				v = flushLocked()
			}

			emittedAsLeading = false
			timer = nil
			done := sourceDone
			mu.Unlock()

			cfg.metrics.TimerFired(opName)

			if shouldEmit {
				out.add(v)
				cfg.metrics.Emitted(opName)
			}

			if done {
				out.close()
			}
		}

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsErrorLogged[Acc](out, cfg.logger, opName)

				mu.Lock()
				soFar = aggregate(v, soFar)
				hasSoFar = true

				hadTimer := timer != nil
				if timer != nil {
					timer.Stop()
				}
				timer = clk.AfterFunc(d, onFire)

				emitLeadingNow := leading && !hadTimer

				var leadingVal Acc
				if emitLeadingNow {
					leadingVal = flushLocked()
					emittedAsLeading = true
				} else {
					emittedAsLeading = false
				}
				mu.Unlock()

				if emitLeadingNow {
					out.add(leadingVal)
					cfg.metrics.Emitted(opName)
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				sourceDone = true
				active := timer != nil
				mu.Unlock()

				if !active {
					out.close()
				}
			},
		})

		return withTimerCancel(upstream, func() {
			mu.Lock()
			t := timer
			mu.Unlock()

			if t != nil {
				t.Stop()
			}
		})
	})
}
