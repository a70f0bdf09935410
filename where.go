package gostreams

import "sync"

// WhereType filters and downcasts source in one step: test observes each
// element and either rejects it or returns the downcast value to forward.
// Expressed in Go as a generic predicate-with-conversion rather than a
// runtime type assertion, since Go generics already give static safety a
// dynamically-typed host would need a downcast for.
func WhereType[T, V any](source Stream[T], test func(v T) (V, bool)) Stream[V] {
	return relay[V](source.Broadcast(), nil, func(out *sink[V]) Subscription {
		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[V](out)

				if mapped, ok := test(v); ok {
					out.add(mapped)
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// AsyncWhere filters source with predicate, which may run arbitrarily long.
// Predicates run concurrently, so output order is completion order, not
// arrival order; a valuesWaiting counter mirrors
// ConcurrentAsyncMap's close rule: the output only closes once source is
// done and every in-flight predicate call has completed.
func AsyncWhere[T any](source Stream[T], predicate func(v T) (bool, error), opts ...Option) Stream[T] {
	cfg := resolveOptions(opts...)

	return relay[T](source.Broadcast(), cfg.metrics, func(out *sink[T]) Subscription {
		var (
			mu         sync.Mutex
			waiting    int
			sourceDone bool
		)

		checkClose := func() {
			mu.Lock()
			shouldClose := sourceDone && waiting == 0
			mu.Unlock()

			if shouldClose {
				out.close()
			}
		}

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				mu.Lock()
				waiting++
				mu.Unlock()

				go func() {
					defer func() {
						mu.Lock()
						waiting--
						mu.Unlock()
						checkClose()
					}()
					defer recoverAsErrorLogged[T](out, cfg.logger, "async_where")

					ok, err := predicate(v)
					if err != nil {
						out.addError(err, captureTrace(err))
						return
					}

					if ok {
						out.add(v)
						cfg.metrics.Emitted("async_where")
					}
				}()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				sourceDone = true
				mu.Unlock()
				checkClose()
			},
		})

		return upstream
	})
}

// DistinctWhen: it emits v when v differs (per equal) from the last
// *seen* value — not the last emitted one — or when predicate(v) is false.
func DistinctWhen[T any](source Stream[T], equal func(a, b T) bool, predicate func(v T) bool) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var (
			hasPrev bool
			prev    T
		)

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[T](out)

				differs := !hasPrev || !equal(prev, v)
				emit := differs || !predicate(v)

				hasPrev = true
				prev = v

				if emit {
					out.add(v)
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// Distinct is DistinctWhen with an always-true predicate: the common special
// case that simply drops consecutive equal values.
func Distinct[T comparable](source Stream[T]) Stream[T] {
	return DistinctWhen(source, func(a, b T) bool { return a == b }, func(T) bool { return true })
}
