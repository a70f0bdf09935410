package gostreams

import "sync"

type clSlot[T any] struct {
	value T
	has   bool
	done  bool
}

// CombineLatest combines the latest value of every stream into a slice,
// re-emitted whenever any one of them produces a new value, once every
// stream has produced at least one: no output event precedes the first
// event from every input.
func CombineLatest[T any](streams ...Stream[T]) Stream[[]T] {
	return CombineLatestAll[T](FromSlice(streams...))
}

// CombineLatestAll is CombineLatest's dynamic-arity counterpart: outer
// produces the streams to combine over time instead of all at once. A slot
// that closes before ever emitting a value means the combination can never
// become complete, so the whole output closes immediately; otherwise
// the output closes once outer and every slot it produced have closed.
func CombineLatestAll[T any](outer Stream[Stream[T]], opts ...Option) Stream[[]T] {
	cfg := resolveOptions(opts...)

	return relay[[]T](outer.Broadcast(), cfg.metrics, func(out *sink[[]T]) Subscription {
		var (
			mu        sync.Mutex
			slots     []*clSlot[T]
			active    = map[string]Subscription{}
			outerDone bool
			closed    bool
		)

		snapshotIfReadyLocked := func() []T {
			if len(slots) == 0 {
				return nil
			}

			snapshot := make([]T, len(slots))

			for i, s := range slots {
				if !s.has {
					return nil
				}
				snapshot[i] = s.value
			}

			return snapshot
		}

		allDoneLocked := func() bool {
			for _, s := range slots {
				if !s.done {
					return false
				}
			}
			return true
		}

		upstream := outer.Listen(Listener[Stream[T]]{
			OnData: func(inner Stream[T]) {
				key := newID()

				mu.Lock()
				slot := &clSlot[T]{}
				slots = append(slots, slot)
				active[key] = nil
				mu.Unlock()

				innerSub := inner.Listen(Listener[T]{
					OnData: func(v T) {
						mu.Lock()
						slot.value = v
						slot.has = true
						snapshot := snapshotIfReadyLocked()
						mu.Unlock()

						if snapshot != nil {
							out.add(snapshot)
							cfg.metrics.Emitted("combine_latest")
						}
					},
					OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
					OnDone: func() {
						mu.Lock()
						slot.done = true
						delete(active, key)

						shouldClose := false
						if !slot.has && !closed {
							closed = true
							shouldClose = true
						} else if !closed && outerDone && allDoneLocked() {
							closed = true
							shouldClose = true
						}
						mu.Unlock()

						if shouldClose {
							out.close()
						}
					},
				})

				mu.Lock()
				if _, stillOpen := active[key]; stillOpen {
					active[key] = innerSub
				}
				mu.Unlock()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				outerDone = true

				shouldClose := false
				if !closed && (len(slots) == 0 || allDoneLocked()) {
					closed = true
					shouldClose = true
				}
				mu.Unlock()

				if shouldClose {
					out.close()
				}
			},
		})

		snapshotSubs := func() Subscription {
			mu.Lock()
			subs := make([]Subscription, 0, len(active)+1)
			for _, s := range active {
				if s != nil {
					subs = append(subs, s)
				}
			}
			mu.Unlock()

			subs = append(subs, upstream)

			return combineSubscriptions(upstream.ID(), subs...)
		}

		return &delegatingSubscription{
			id:       upstream.ID(),
			cancelFn: func() <-chan struct{} { return snapshotSubs().Cancel() },
			pauseFn:  func() { snapshotSubs().Pause() },
			resumeFn: func() { snapshotSubs().Resume() },
		}
	})
}

// CombineFunc combines the latest values of two streams into a result,
// possibly asynchronously: it may block arbitrarily long before returning,
// the same "conceptually asyncMap" convention Scan's combine uses.
type CombineFunc[A, B, R any] func(a A, b B) (R, error)

// CombineLatest2 is the binary combineLatest: it buffers the latest value
// from each of a and b, and once both have emitted at least once, calls f
// with the two latest values on every subsequent event from either side.
// While f is running, both subscriptions are paused (a no-op on a broadcast
// side) and resumed once f returns, so a slow or asynchronous f naturally
// backpressures both inputs rather than racing concurrent calls. Broadcast
// mirrors a, the first argument, matching WithLatestFrom's convention for
// which of two named inputs is primary.
func CombineLatest2[A, B, R any](a Stream[A], b Stream[B], f CombineFunc[A, B, R], opts ...Option) Stream[R] {
	cfg := resolveOptions(opts...)

	return relay[R](a.Broadcast(), cfg.metrics, func(out *sink[R]) Subscription {
		var (
			mu      sync.Mutex
			latestA A
			hasA    bool
			aDone   bool
			latestB B
			hasB    bool
			bDone   bool
			busy    bool
			closed  bool
			aSub    Subscription
			bSub    Subscription
		)

		pauseBoth := func() {
			mu.Lock()
			as, bs := aSub, bSub
			mu.Unlock()

			if as != nil {
				as.Pause()
			}
			if bs != nil {
				bs.Pause()
			}
		}

		resumeBoth := func() {
			mu.Lock()
			as, bs := aSub, bSub
			mu.Unlock()

			if as != nil {
				as.Resume()
			}
			if bs != nil {
				bs.Resume()
			}
		}

		closeIfNeeded := func(immediate bool) {
			mu.Lock()
			shouldClose := false
			if !closed && (immediate || (aDone && bDone)) {
				closed = true
				shouldClose = true
			}
			mu.Unlock()

			if shouldClose {
				out.close()
			}
		}

		combine := func() {
			mu.Lock()
			if !hasA || !hasB || busy {
				mu.Unlock()
				return
			}
			busy = true
			av, bv := latestA, latestB
			mu.Unlock()

			pauseBoth()

			func() {
				defer func() {
					mu.Lock()
					busy = false
					mu.Unlock()
					resumeBoth()
				}()
				defer recoverAsError[R](out)

				result, err := f(av, bv)
				if err != nil {
					out.addError(err, captureTrace(err))
					return
				}

				out.add(result)
				cfg.metrics.Emitted("combine_latest2")
			}()
		}

		aListener := a.Listen(Listener[A]{
			OnData: func(v A) {
				mu.Lock()
				latestA = v
				hasA = true
				mu.Unlock()

				combine()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				aDone = true
				noEmit := !hasA
				mu.Unlock()

				closeIfNeeded(noEmit)
			},
		})

		mu.Lock()
		aSub = aListener
		mu.Unlock()

		bListener := b.Listen(Listener[B]{
			OnData: func(v B) {
				mu.Lock()
				latestB = v
				hasB = true
				mu.Unlock()

				combine()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				bDone = true
				noEmit := !hasB
				mu.Unlock()

				closeIfNeeded(noEmit)
			},
		})

		mu.Lock()
		bSub = bListener
		mu.Unlock()

		return combineSubscriptions(aListener.ID(), aListener, bListener)
	})
}

// WithLatest pairs a source value with the most recently observed value of
// another stream.
type WithLatest[T, U any] struct {
	Value  T
	Latest U
}

// WithLatestFrom emits once per source event, paired with other's latest
// value, once other has emitted at least once (source events arriving before
// that are dropped).
// Unlike CombineLatest, other's events never trigger an output by themselves,
// and completion of other does not close the output; only source completing
// does.
func WithLatestFrom[T, U any](source Stream[T], other Stream[U], opts ...Option) Stream[WithLatest[T, U]] {
	cfg := resolveOptions(opts...)

	return relay[WithLatest[T, U]](source.Broadcast(), cfg.metrics, func(out *sink[WithLatest[T, U]]) Subscription {
		var (
			mu        sync.Mutex
			latest    U
			hasLatest bool
		)

		otherSub := other.Listen(Listener[U]{
			OnData: func(v U) {
				mu.Lock()
				latest = v
				hasLatest = true
				mu.Unlock()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() {},
		})

		sourceSub := source.Listen(Listener[T]{
			OnData: func(v T) {
				mu.Lock()
				l := latest
				ok := hasLatest
				mu.Unlock()

				if ok {
					out.add(WithLatest[T, U]{Value: v, Latest: l})
					cfg.metrics.Emitted("with_latest_from")
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})

		return combineSubscriptions(sourceSub.ID(), sourceSub, otherSub)
	})
}
