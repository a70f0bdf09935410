package gostreams

import (
	"sync"
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
)

type throttleState int

const (
	throttleIdle throttleState = iota
	throttleInPeriod
	throttleInPeriodPending
)

// Throttle emits the first event of each period of length d immediately,
// then drops subsequent events until the period ends. If trailing is
// true, the most recent dropped event within a period is remembered and
// emitted once the period ends, which starts a new period from that
// emission; otherwise within-period events are simply dropped.
//
// State machine: Idle, InPeriod (timer running, nothing pending),
// InPeriod+Pending (timer running, a value is waiting). Done while Idle or
// InPeriod (nothing pending) closes immediately; Done while InPeriod+Pending
// defers close until the timer fires and emits the pending value.
func Throttle[T any](source Stream[T], d time.Duration, trailing bool, opts ...Option) Stream[T] {
	return throttle(source, d, trailing, clock.Real(), opts...)
}

func throttle[T any](source Stream[T], d time.Duration, trailing bool, clk clock.Clock, opts ...Option) Stream[T] {
	cfg := resolveOptions(opts...)

	return relay[T](source.Broadcast(), cfg.metrics, func(out *sink[T]) Subscription {
		var (
			mu      sync.Mutex
			state   = throttleIdle
			pending T
			timer   clock.Timer
			isDone  bool
		)

		var onTimerFire func()

		onTimerFire = func() {
			mu.Lock()

			switch state {
			case throttleInPeriod:
				state = throttleIdle
				done := isDone
				mu.Unlock()

				cfg.metrics.TimerFired("throttle")

				if done {
					out.close()
				}

			case throttleInPeriodPending:
				v := pending
				done := isDone

				if done {
					state = throttleIdle
				} else {
					state = throttleInPeriod
					timer = clk.AfterFunc(d, onTimerFire)
				}
				mu.Unlock()

				cfg.metrics.TimerFired("throttle")
				out.add(v)
				cfg.metrics.Emitted("throttle")

				if done {
					out.close()
				}

			default:
				mu.Unlock()
			}
		}

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsErrorLogged[T](out, cfg.logger, "throttle")

				mu.Lock()

				switch state {
				case throttleIdle:
					state = throttleInPeriod
					timer = clk.AfterFunc(d, onTimerFire)
					mu.Unlock()

					out.add(v)
					cfg.metrics.Emitted("throttle")

				case throttleInPeriod:
					if trailing {
						pending = v
						state = throttleInPeriodPending
					}
					mu.Unlock()

				case throttleInPeriodPending:
					pending = v
					mu.Unlock()
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()

				switch state {
				case throttleInPeriodPending:
					isDone = true
					mu.Unlock()

				default:
					mu.Unlock()
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
