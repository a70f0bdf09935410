package gostreams

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// FromSlice returns a single-subscription stream that emits the elements of
// values, in order, then closes.
func FromSlice[T any](values ...T) Stream[T] {
	return NewStream[T](false, func(listener Listener[T]) Subscription {
		out := newSink[T](false)
		id := newID()
		out.attach(id, listener)

		cancelCh := make(chan struct{})
		g := newGate()

		go func() {
			defer out.close()

			for _, v := range values {
				g.wait()

				select {
				case <-cancelCh:
					return
				default:
				}

				out.add(v)
			}
		}()

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)
				safeClose(cancelCh)
				return closedSignal()
			},
			pauseFn:  g.pause,
			resumeFn: g.resume,
		}
	})
}

// FromChannel returns a single-subscription stream that emits every element
// received on ch, in order, closing when ch is closed.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return NewStream[T](false, func(listener Listener[T]) Subscription {
		out := newSink[T](false)
		id := newID()
		out.attach(id, listener)

		cancelCh := make(chan struct{})
		g := newGate()

		go func() {
			defer out.close()

			for {
				g.wait()

				select {
				case v, ok := <-ch:
					if !ok {
						return
					}
					out.add(v)

				case <-cancelCh:
					return
				}
			}
		}()

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)
				safeClose(cancelCh)
				return closedSignal()
			},
			pauseFn:  g.pause,
			resumeFn: g.resume,
		}
	})
}

// FromChannelsConcurrent returns a single-subscription stream that emits the
// elements received across all of channels, in undefined order, closing once
// every channel has closed.
func FromChannelsConcurrent[T any](channels ...<-chan T) Stream[T] {
	return NewStream[T](false, func(listener Listener[T]) Subscription {
		out := newSink[T](false)
		id := newID()
		out.attach(id, listener)

		cancelCh := make(chan struct{})
		g := newGate()

		var grp errgroup.Group

		for _, ch := range channels {
			ch := ch
			grp.Go(func() error {
				for {
					g.wait()

					select {
					case v, ok := <-ch:
						if !ok {
							return nil
						}
						out.add(v)

					case <-cancelCh:
						return nil
					}
				}
			})
		}

		go func() {
			_ = grp.Wait()
			out.close()
		}()

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)
				safeClose(cancelCh)
				return closedSignal()
			},
			pauseFn:  g.pause,
			resumeFn: g.resume,
		}
	})
}

// Empty returns a single-subscription stream that closes immediately on
// Listen, without ever emitting.
func Empty[T any]() Stream[T] {
	return NewStream[T](false, func(listener Listener[T]) Subscription {
		listener.done()

		return &delegatingSubscription{id: newID()}
	})
}

// Never returns a single-subscription stream that neither emits nor closes
// until canceled.
func Never[T any]() Stream[T] {
	return NewStream[T](false, func(listener Listener[T]) Subscription {
		return &delegatingSubscription{id: newID()}
	})
}

// Multicast wraps source so the returned stream is always broadcast,
// converting a single-subscription source into a hot, fanned-out one shared
// by every listener. Used by startWithStream to convert a single-subscription
// prefix when the suffix source is broadcast.
func Multicast[T any](source Stream[T]) Stream[T] {
	if source.Broadcast() {
		return source
	}

	var (
		mu       sync.Mutex
		out      *sink[T]
		upstream Subscription
	)

	ensure := func() *sink[T] {
		mu.Lock()
		defer mu.Unlock()

		if out != nil {
			return out
		}

		out = newSink[T](true)
		upstream = source.Listen(Listener[T]{
			OnData:  func(v T) { out.add(v) },
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
		_ = upstream

		return out
	}

	return NewStream[T](true, func(listener Listener[T]) Subscription {
		outSink := ensure()

		id := newID()
		outSink.attach(id, listener)

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				outSink.detach(id)
				return closedSignal()
			},
		}
	})
}

func safeClose(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
