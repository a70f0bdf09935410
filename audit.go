package gostreams

import (
	"sync"
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
)

// Audit emits the most recent event of each period of length d, at the end
// of the period, always trailing. A new period starts on the first event
// received after the previous emission.
//
// State machine: Idle; on data, remember it as recent and start a timer for
// d if none is running. When the timer fires, emit recent and go Idle. Done
// while a timer is pending defers close until the timer fires; Done while
// Idle closes immediately.
func Audit[T any](source Stream[T], d time.Duration, opts ...Option) Stream[T] {
	return audit(source, d, clock.Real(), opts...)
}

func audit[T any](source Stream[T], d time.Duration, clk clock.Clock, opts ...Option) Stream[T] {
	cfg := resolveOptions(opts...)

	return relay[T](source.Broadcast(), cfg.metrics, func(out *sink[T]) Subscription {
		var (
			mu     sync.Mutex
			recent T
			timer  clock.Timer
			isDone bool
		)

		var onFire func()

		onFire = func() {
			mu.Lock()
			v := recent
			timer = nil
			done := isDone
			mu.Unlock()

			cfg.metrics.TimerFired("audit")
			out.add(v)
			cfg.metrics.Emitted("audit")

			if done {
				out.close()
			}
		}

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsErrorLogged[T](out, cfg.logger, "audit")

				mu.Lock()
				recent = v

				startTimer := timer == nil
				if startTimer {
					timer = clk.AfterFunc(d, onFire)
				}
				mu.Unlock()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				if timer != nil {
					isDone = true
					mu.Unlock()

					return
				}
				mu.Unlock()
				out.close()
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
