package gostreams

import "sync"

// ConcurrentAsyncExpand projects every value of source to an inner stream and
// merges all of them concurrently: an outer event's inner stream starts as
// soon as it arrives, running alongside any inner streams still open from
// earlier outer events. The output closes once source is done and
// every inner stream it produced has closed.
//
// When source is broadcast, the outer subscription starts immediately, ahead
// of any subscriber to the output, and is never torn down even once every
// subscriber leaves - the same hot-source discipline Multicast follows, so
// a later subscriber joins a merge that is already running rather than
// restarting it. An inner stream that is itself broadcast is not listened to
// until the output has at least one subscriber of its own, so it never does
// work purely to feed a sink nobody is watching; once the first subscriber
// attaches, every such inner stream still pending is subscribed to at once.
func ConcurrentAsyncExpand[T, U any](source Stream[T], project func(v T) Stream[U], opts ...Option) Stream[U] {
	cfg := resolveOptions(opts...)

	if !source.Broadcast() {
		return relay[U](false, cfg.metrics, func(out *sink[U]) Subscription {
			var (
				mu        sync.Mutex
				active    = map[string]Subscription{}
				outerDone bool
			)

			checkClose := func() {
				mu.Lock()
				shouldClose := outerDone && len(active) == 0
				mu.Unlock()

				if shouldClose {
					out.close()
				}
			}

			upstream := source.Listen(Listener[T]{
				OnData: func(v T) {
					inner := projectSafe(out, project, v)
					key := newID()

					mu.Lock()
					active[key] = nil
					mu.Unlock()

					cfg.metrics.InnerStreamOpened("concurrent_async_expand")

					sub := inner.Listen(Listener[U]{
						OnData:  func(u U) { out.add(u) },
						OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
						OnDone: func() {
							mu.Lock()
							delete(active, key)
							mu.Unlock()

							cfg.metrics.InnerStreamClosed("concurrent_async_expand")
							checkClose()
						},
					})

					mu.Lock()
					if _, stillOpen := active[key]; stillOpen {
						active[key] = sub
					}
					mu.Unlock()
				},
				OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
				OnDone: func() {
					mu.Lock()
					outerDone = true
					mu.Unlock()
					checkClose()
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

	out := newSink[U](true)

	var (
		mu        sync.Mutex
		active    = map[string]Subscription{}
		pending   = map[string]Stream[U]{}
		outerDone bool
	)

	checkClose := func() {
		mu.Lock()
		shouldClose := outerDone && len(active) == 0 && len(pending) == 0
		mu.Unlock()

		if shouldClose {
			out.close()
		}
	}

	subscribeInner := func(key string, inner Stream[U]) {
		cfg.metrics.InnerStreamOpened("concurrent_async_expand")

		sub := inner.Listen(Listener[U]{
			OnData:  func(u U) { out.add(u) },
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				delete(active, key)
				mu.Unlock()

				cfg.metrics.InnerStreamClosed("concurrent_async_expand")
				checkClose()
			},
		})

		mu.Lock()
		if _, stillOpen := active[key]; stillOpen {
			active[key] = sub
		}
		mu.Unlock()
	}

	source.Listen(Listener[T]{
		OnData: func(v T) {
			inner := projectSafe(out, project, v)
			key := newID()

			deferSub := inner.Broadcast() && out.listenerCount() == 0

			mu.Lock()
			active[key] = nil
			if deferSub {
				pending[key] = inner
			}
			mu.Unlock()

			if deferSub {
				return
			}

			subscribeInner(key, inner)
		},
		OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
		OnDone: func() {
			mu.Lock()
			outerDone = true
			mu.Unlock()
			checkClose()
		},
	})

	return NewStream[U](true, func(listener Listener[U]) Subscription {
		id := newID()
		out.attach(id, listener)
		cfg.metrics.SubscriptionOpened()

		mu.Lock()
		toFlush := make(map[string]Stream[U], len(pending))
		for k, s := range pending {
			toFlush[k] = s
			delete(pending, k)
		}
		mu.Unlock()

		for k, inner := range toFlush {
			subscribeInner(k, inner)
		}

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)
				cfg.metrics.SubscriptionClosed()
				return closedSignal()
			},
			pauseFn:  func() {},
			resumeFn: func() {},
		}
	})
}

// SequentialAsyncExpand projects every value of source to an inner stream and
// runs them strictly one at a time, in outer arrival order: an outer event
// that arrives while an inner stream is still open is queued rather than
// canceling that inner stream, even when source is broadcast: a broadcast
// outer never causes a prior inner to be abandoned; later outer events
// simply wait.
func SequentialAsyncExpand[T, U any](source Stream[T], project func(v T) Stream[U], opts ...Option) Stream[U] {
	cfg := resolveOptions(opts...)

	return relay[U](source.Broadcast(), cfg.metrics, func(out *sink[U]) Subscription {
		var (
			mu        sync.Mutex
			queue     []T
			active    bool
			innerSub  Subscription
			outerDone bool
		)

		var startNext func()

		startNext = func() {
			mu.Lock()
			if active || len(queue) == 0 {
				mu.Unlock()
				return
			}

			v := queue[0]
			queue = queue[1:]
			active = true
			mu.Unlock()

			inner := projectSafe(out, project, v)

			cfg.metrics.InnerStreamOpened("sequential_async_expand")

			sub := inner.Listen(Listener[U]{
				OnData:  func(u U) { out.add(u) },
				OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
				OnDone: func() {
					mu.Lock()
					active = false
					innerSub = nil
					shouldClose := outerDone && len(queue) == 0
					mu.Unlock()

					cfg.metrics.InnerStreamClosed("sequential_async_expand")

					if shouldClose {
						out.close()
						return
					}

					startNext()
				},
			})

			mu.Lock()
			innerSub = sub
			mu.Unlock()
		}

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				mu.Lock()
				queue = append(queue, v)
				mu.Unlock()
				startNext()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				mu.Lock()
				outerDone = true
				shouldClose := !active && len(queue) == 0
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

// projectSafe runs project and turns a panic into a stream error plus an
// empty inner stream, so a bad projection never kills the whole pipeline.
func projectSafe[T, U any](out *sink[U], project func(v T) Stream[U], v T) (s Stream[U]) {
	defer func() {
		if r := recover(); r != nil {
			err := panicToError(r)
			out.addError(err, captureTrace(err))
			s = Empty[U]()
		}
	}()

	return project(v)
}
