package gostreams

import "sync"

// FollowedBy emits every event of first, then, once first closes cleanly,
// subscribes to second and emits its events too. second is not
// subscribed to until first is fully done, so its side effects (if any)
// never start early.
func FollowedBy[T any](first, second Stream[T]) Stream[T] {
	broadcast := first.Broadcast()

	return relay[T](broadcast, nil, func(out *sink[T]) Subscription {
		var (
			mu        sync.Mutex
			secondSub Subscription
		)

		firstSub := first.Listen(Listener[T]{
			OnData:  func(v T) { out.add(v) },
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				sub := second.Listen(Listener[T]{
					OnData:  func(v T) { out.add(v) },
					OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
					OnDone:  func() { out.close() },
				})

				mu.Lock()
				secondSub = sub
				mu.Unlock()
			},
		})

		return &delegatingSubscription{
			id: firstSub.ID(),
			cancelFn: func() <-chan struct{} {
				mu.Lock()
				sub := secondSub
				mu.Unlock()

				if sub == nil {
					return firstSub.Cancel()
				}

				return combineSubscriptions(firstSub.ID(), firstSub, sub).Cancel()
			},
			pauseFn: func() {
				mu.Lock()
				sub := secondSub
				mu.Unlock()

				if sub != nil {
					sub.Pause()
				} else {
					firstSub.Pause()
				}
			},
			resumeFn: func() {
				mu.Lock()
				sub := secondSub
				mu.Unlock()

				if sub != nil {
					sub.Resume()
				} else {
					firstSub.Resume()
				}
			},
		}
	})
}

// StartWith prepends a single value ahead of source.
func StartWith[T any](source Stream[T], v T) Stream[T] {
	return StartWithStream(FromSlice(v), source)
}

// StartWithMany prepends several values, in order, ahead of source.
func StartWithMany[T any](source Stream[T], vs ...T) Stream[T] {
	return StartWithStream(FromSlice(vs...), source)
}

// StartWithStream prepends an entire stream ahead of source, subscribing to
// source only once prefix closes. If source is broadcast but prefix is not,
// prefix is converted with Multicast first so the combined stream's
// broadcast contract holds across both halves.
func StartWithStream[T any](prefix, source Stream[T]) Stream[T] {
	if source.Broadcast() && !prefix.Broadcast() {
		prefix = Multicast(prefix)
	}

	return FollowedBy(prefix, source)
}

// TakeUntil forwards source's events until notifier produces its first
// event, at which point source is canceled and the output closes.
func TakeUntil[T any](source Stream[T], notifier Stream[Unit]) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		var (
			mu     sync.Mutex
			closed bool
		)

		sourceSub := source.Listen(Listener[T]{
			OnData: func(v T) {
				mu.Lock()
				done := closed
				mu.Unlock()

				if !done {
					out.add(v)
				}
			},
			OnError: func(err error, trace *TracedError) {
				mu.Lock()
				done := closed
				mu.Unlock()

				if !done {
					out.addError(err, trace)
				}
			},
			OnDone: func() {
				mu.Lock()
				already := closed
				closed = true
				mu.Unlock()

				if !already {
					out.close()
				}
			},
		})

		notifierSub := notifier.Listen(Listener[Unit]{
			OnData: func(Unit) {
				mu.Lock()
				already := closed
				closed = true
				mu.Unlock()

				if !already {
					sourceSub.Cancel()
					out.close()
				}
			},
			OnDone: func() {},
		})

		return combineSubscriptions(sourceSub.ID(), sourceSub, notifierSub)
	})
}

// Pair holds two consecutive values of a stream.
type Pair[T any] struct {
	Prev T
	Curr T
}

// Pairwise emits the (previous, current) pair for every value after the
// first: the first value only seeds Prev and produces no output.
func Pairwise[T any](source Stream[T]) Stream[Pair[T]] {
	return relay[Pair[T]](source.Broadcast(), nil, func(out *sink[Pair[T]]) Subscription {
		var (
			hasPrev bool
			prev    T
		)

		return source.Listen(Listener[T]{
			OnData: func(v T) {
				if hasPrev {
					out.add(Pair[T]{Prev: prev, Curr: v})
				}

				hasPrev = true
				prev = v
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone:  func() { out.close() },
		})
	})
}
