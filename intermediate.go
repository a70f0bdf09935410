package gostreams

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Function returns the result of applying an operation to elem.
type Function[T, U any] func(elem T) U

// MapperFunc maps element elem, at index, to type U. Index is the 0-based
// position of elem in the order produced by the upstream stream.
type MapperFunc[T, U any] func(elem T, index uint64) U

// PredicateFunc reports whether elem, at index, matches.
type PredicateFunc[T any] func(elem T, index uint64) bool

// LessFunc reports whether a is "less" than b, for Sort.
type LessFunc[T any] func(a, b T) bool

// FuncMapper adapts a plain Function, ignoring the index, into a MapperFunc.
func FuncMapper[T, U any](f Function[T, U]) MapperFunc[T, U] {
	return func(elem T, _ uint64) U { return f(elem) }
}

// Identity returns a mapper that returns its element unchanged.
func Identity[T any]() MapperFunc[T, T] {
	return func(elem T, _ uint64) T { return elem }
}

// Map returns a stream that applies mapp to every element of source, in
// order. Broadcast-ness mirrors source, and mapp runs once per source
// event even when the output has several listeners.
func Map[T, U any](source Stream[T], mapp MapperFunc[T, U]) Stream[U] {
	return relay[U](source.Broadcast(), nil, func(out *sink[U]) Subscription {
		var index uint64

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[U](out)

				i := index
				index++
				out.add(mapp(v, i))
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// Filter returns a stream that emits only the elements of source for which
// filter returns true.
func Filter[T any](source Stream[T], filter PredicateFunc[T]) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var index uint64

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[T](out)

				i := index
				index++

				if filter(v, i) {
					out.add(v)
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// Peek returns a stream that calls peek for each element of source, in
// order, forwarding the same elements unchanged.
func Peek[T any](source Stream[T], peek ConsumerFunc[T]) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var index uint64

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[T](out)

				i := index
				index++
				peek(v, i)
				out.add(v)
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// Limit returns a stream that emits at most max elements of source, then
// closes and cancels the upstream subscription.
func Limit[T any](source Stream[T], max uint64) Stream[T] {
	if max == 0 {
		return Empty[T]()
	}

	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var (
			mu            sync.Mutex
			done          uint64
			sourceSub     Subscription
			cancelPending bool
		)

		cancelSource := func() {
			mu.Lock()
			sub := sourceSub
			if sub == nil {
				cancelPending = true
				mu.Unlock()
				return
			}
			mu.Unlock()

			sub.Cancel()
		}

		sub := source.Listen(Listener[T]{
			OnData: func(v T) {
				out.add(v)

				done++
				if done >= max {
					out.close()
					cancelSource()
				}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})

		mu.Lock()
		sourceSub = sub
		pending := cancelPending
		mu.Unlock()

		if pending {
			sub.Cancel()
		}

		return sub
	})
}

// Skip returns a stream that discards the first num elements of source and
// emits the rest, in order.
func Skip[T any](source Stream[T], num uint64) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var done uint64

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[T](out)

				done++
				if done <= num {
					return
				}
				out.add(v)
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}

// Sort buffers every element of source, sorts them with less, and emits them
// in sorted order once source closes.
func Sort[T any](source Stream[T], less LessFunc[T]) Stream[T] {
	return relay[T](false, nil, func(out *sink[T]) Subscription {
		var buffered []T

		return source.Listen(Listener[T]{
			OnData: func(v T) { buffered = append(buffered, v) },
			OnError: func(err error, trace *TracedError) {
				out.addError(err, trace)
			},
			OnDone: func() {
				slices.SortFunc(buffered, func(a, b T) bool { return less(a, b) })
				for _, v := range buffered {
					out.add(v)
				}
				out.close()
			},
		})
	})
}
