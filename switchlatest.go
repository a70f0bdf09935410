package gostreams

import "sync"

type switchState int

const (
	switchNoInner switchState = iota
	switchActiveInner
	switchCancelling
)

// SwitchLatest flattens a stream of streams, always forwarding events from
// only the most recently arrived inner stream. When a new inner stream
// arrives while one is still active, the old inner is canceled and its
// events are dropped even if a few arrive before the cancellation actually
// completes; a per-subscription generation counter distinguishes
// stale events from current ones. The state machine tracks three states
// rather than collapsing them to two: no inner subscribed, an inner
// actively delivering, and cancelling the old inner while a newer one
// waits to take its place.
func SwitchLatest[T any](source Stream[Stream[T]], opts ...Option) Stream[T] {
	cfg := resolveOptions(opts...)

	return relay[T](source.Broadcast(), cfg.metrics, func(out *sink[T]) Subscription {
		var (
			mu         sync.Mutex
			state      = switchNoInner
			gen        int
			innerSub   Subscription
			pending    Stream[T]
			hasPending bool
			outerDone  bool
		)

		var subscribeInner func(next Stream[T])

		finishCancel := func(afterGen int) {
			mu.Lock()
			if afterGen != gen {
				mu.Unlock()
				return
			}

			if hasPending {
				next := pending
				hasPending = false
				mu.Unlock()
				subscribeInner(next)
				return
			}

			state = switchNoInner
			innerSub = nil
			shouldClose := outerDone
			mu.Unlock()

			if shouldClose {
				out.close()
			}
		}

		subscribeInner = func(next Stream[T]) {
			mu.Lock()
			gen++
			myGen := gen
			state = switchActiveInner
			mu.Unlock()

			cfg.metrics.InnerStreamOpened("switch_latest")

			sub := next.Listen(Listener[T]{
				OnData: func(v T) {
					mu.Lock()
					current := gen == myGen
					mu.Unlock()

					if current {
						out.add(v)
					}
				},
				OnError: func(err error, trace *TracedError) {
					mu.Lock()
					current := gen == myGen
					mu.Unlock()

					if current {
						out.addError(err, trace)
					}
				},
				OnDone: func() {
					mu.Lock()
					current := gen == myGen
					if current {
						state = switchNoInner
						innerSub = nil
					}
					shouldClose := current && outerDone
					mu.Unlock()

					if current {
						cfg.metrics.InnerStreamClosed("switch_latest")
					}
					if shouldClose {
						out.close()
					}
				},
			})

			mu.Lock()
			innerSub = sub
			mu.Unlock()
		}

		upstream := source.Listen(Listener[Stream[T]]{
			OnData: func(next Stream[T]) {
				mu.Lock()
				switch state {
				case switchNoInner:
					mu.Unlock()
					subscribeInner(next)
				case switchActiveInner:
					state = switchCancelling
					pending = next
					hasPending = true
					sub := innerSub
					myGen := gen
					mu.Unlock()

					go func() {
						<-sub.Cancel()
						finishCancel(myGen)
					}()
				default: // switchCancelling
					pending = next
					hasPending = true
					mu.Unlock()
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				outerDone = true
				shouldClose := state == switchNoInner
				mu.Unlock()

				if shouldClose {
					out.close()
				}
			},
		})

		snapshotSubs := func() Subscription {
			mu.Lock()
			sub := innerSub
			mu.Unlock()

			if sub == nil {
				return upstream
			}

			return combineSubscriptions(upstream.ID(), upstream, sub)
		}

		return &delegatingSubscription{
			id:       upstream.ID(),
			cancelFn: func() <-chan struct{} { return snapshotSubs().Cancel() },
			pauseFn:  func() { snapshotSubs().Pause() },
			resumeFn: func() { snapshotSubs().Resume() },
		}
	})
}

// SwitchMap is SwitchLatest composed with a per-event projection: the common
// case of mapping each outer value to an inner stream inline.
func SwitchMap[T, U any](source Stream[T], project func(v T) Stream[U], opts ...Option) Stream[U] {
	projected := Map(source, func(v T, _ uint64) Stream[U] { return project(v) })
	return SwitchLatest(projected, opts...)
}
