package gostreams

import "sync"

// Merge interleaves events from every source stream as they arrive, closing
// once all of them have closed. An error from any source is forwarded
// immediately without closing the others.
func Merge[T any](sources ...Stream[T]) Stream[T] {
	return MergeAll(FromSlice(sources...))
}

// MergeAll subscribes to every inner stream produced by outer as soon as it
// arrives and interleaves all of their events, closing once outer and every
// inner stream it produced have closed. It is the concurrent, no-switching
// counterpart to SwitchLatest: unlike SwitchLatest, an inner stream is never
// canceled because a new one arrived.
func MergeAll[T any](outer Stream[Stream[T]], opts ...Option) Stream[T] {
	cfg := resolveOptions(opts...)

	return relay[T](outer.Broadcast(), cfg.metrics, func(out *sink[T]) Subscription {
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

		upstream := outer.Listen(Listener[Stream[T]]{
			OnData: func(inner Stream[T]) {
				key := newID()

				mu.Lock()
				active[key] = nil
				mu.Unlock()

				cfg.metrics.InnerStreamOpened("merge_all")

				sub := inner.Listen(Listener[T]{
					OnData:  func(v T) { out.add(v) },
					OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
					OnDone: func() {
						mu.Lock()
						delete(active, key)
						mu.Unlock()

						cfg.metrics.InnerStreamClosed("merge_all")
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
