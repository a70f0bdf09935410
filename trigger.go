package gostreams

import "sync"

// Unit is the value-less element type used by trigger streams.
type Unit struct{}

// AggregateFunc folds an arriving value into the pending accumulator.
type AggregateFunc[V, Acc any] func(v V, soFar Acc) Acc

// TriggerOptions configures TriggerAggregate.
type TriggerOptions[V, Acc any] struct {
	// Aggregate folds an arriving value into the pending accumulator.
	Aggregate AggregateFunc[V, Acc]

	// LongPoll: if true, a trigger firing while nothing is pending arms the
	// aggregator so the very next value passes straight through as its own
	// single-value flush. If false, such a trigger is simply ignored.
	LongPoll bool
}

// TriggerAggregate implements the trigger-aggregate primitive: values
// accumulate into an accumulator that flushes to the output whenever trigger
// emits. buffer and sample are both thin wrappers around this.
func TriggerAggregate[V, Acc any](values Stream[V], trigger Stream[Unit], opts TriggerOptions[V, Acc]) Stream[Acc] {
	broadcast := values.Broadcast()

	return NewStream[Acc](broadcast, func(listener Listener[Acc]) Subscription {
		out := newSink[Acc](broadcast)
		id := newID()
		out.attach(id, listener)

		var (
			mu                sync.Mutex
			current           Acc
			hasCurrent        bool
			waitingForTrigger bool = true
			valuesDone        bool
			triggerDone       bool
		)

		// flushLocked must be called while holding mu; it resets the pending
		// accumulator and returns the value to emit.
		flushLocked := func() Acc {
			v := current

			var zero Acc

			current = zero
			hasCurrent = false
			waitingForTrigger = true

			return v
		}

		checkClose := func() {
			mu.Lock()
			shouldClose := (valuesDone && !hasCurrent) || (triggerDone && waitingForTrigger)
			mu.Unlock()

			if shouldClose {
				out.close()
			}
		}

		valuesSub := values.Listen(Listener[V]{
			OnData: func(v V) {
				mu.Lock()
				current = opts.Aggregate(v, current)
				hasCurrent = true

				immediate := !waitingForTrigger

				var flushed Acc
				if immediate {
					flushed = flushLocked()
				}
				mu.Unlock()

				if immediate {
					out.add(flushed)
					checkClose()
				}
			},
			OnError: func(err error, trace *TracedError) {
				out.addError(err, trace)
			},
			OnDone: func() {
				mu.Lock()
				valuesDone = true
				mu.Unlock()
				checkClose()
			},
		})

		triggerSub := trigger.Listen(Listener[Unit]{
			OnData: func(Unit) {
				mu.Lock()
				shouldFlush := hasCurrent

				var flushed Acc
				if shouldFlush {
					flushed = flushLocked()
				} else if opts.LongPoll {
					waitingForTrigger = false
				}
				mu.Unlock()

				if shouldFlush {
					out.add(flushed)
					checkClose()
				}
			},
			OnError: func(err error, trace *TracedError) {
				out.addError(err, trace)
			},
			OnDone: func() {
				mu.Lock()
				triggerDone = true
				mu.Unlock()
				checkClose()
			},
		})

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)

				vc := valuesSub.Cancel()
				tc := triggerSub.Cancel()

				done := make(chan struct{})
				go func() {
					<-vc
					<-tc
					close(done)
				}()

				return done
			},
			pauseFn: func() {
				if !broadcast {
					valuesSub.Pause()
					triggerSub.Pause()
				}
			},
			resumeFn: func() {
				if !broadcast {
					valuesSub.Resume()
					triggerSub.Resume()
				}
			},
		}
	})
}
