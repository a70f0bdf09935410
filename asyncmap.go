package gostreams

import "sync"

// AsyncMapper transforms a value into a result, possibly slowly.
type AsyncMapper[T, U any] func(v T) (U, error)

// ConcurrentAsyncMap runs mapper for every arriving value on its own
// goroutine, forwarding results as they complete. Because mapper calls race
// each other, output order is completion order rather than arrival order —
// the concurrency/ordering tradeoff this family accepts explicitly. The
// output only closes once source is done and every in-flight mapper call
// has finished.
func ConcurrentAsyncMap[T, U any](source Stream[T], mapper AsyncMapper[T, U], opts ...Option) Stream[U] {
	cfg := resolveOptions(opts...)

	return relay[U](source.Broadcast(), cfg.metrics, func(out *sink[U]) Subscription {
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
					defer recoverAsErrorLogged[U](out, cfg.logger, "concurrent_async_map")

					mapped, err := mapper(v)
					if err != nil {
						out.addError(err, captureTrace(err))
						return
					}

					out.add(mapped)
					cfg.metrics.Emitted("concurrent_async_map")
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

// newManualTrigger returns a private, single-subscription Unit stream driven
// entirely by fire, plus a close func to terminate it. It exists to give an
// operator its own local pacing signal rather than accepting one from a
// caller: asyncMapBuffer/asyncMapSample fire it themselves the moment their
// mapper call completes. The stream seeds itself with one Unit the instant a
// listener attaches, so the first value downstream sees goes through alone
// without the caller having to fire before anyone is listening.
func newManualTrigger() (Stream[Unit], func(), func()) {
	out := newSink[Unit](false)

	stream := NewStream[Unit](false, func(listener Listener[Unit]) Subscription {
		id := newID()
		out.attach(id, listener)
		out.add(Unit{})

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				out.detach(id)
				return closedSignal()
			},
		}
	})

	fire := func() { out.add(Unit{}) }
	closeTrigger := func() { out.close() }

	return stream, fire, closeTrigger
}

// AsyncMapBuffer maps source's values through mapper one batch at a time.
// The pacing trigger is not caller-supplied: it is a local single-value
// signal this operator fires itself the instant a mapper call completes, so
// the very first value goes through as its own single-element batch, and
// while mapper is running, arriving values accumulate into the next batch —
// automatic backpressure over a slow mapper. The output closes once source
// is done and the last mapper call has finished.
func AsyncMapBuffer[T, U any](source Stream[T], mapper AsyncMapper[[]T, []U], opts ...Option) Stream[[]U] {
	cfg := resolveOptions(opts...)

	workFinished, fire, closeTrigger := newManualTrigger()

	batches := Buffer(source, workFinished)

	return relay[[]U](batches.Broadcast(), cfg.metrics, func(out *sink[[]U]) Subscription {
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

		upstream := batches.Listen(Listener[[]T]{
			OnData: func(batch []T) {
				mu.Lock()
				waiting++
				mu.Unlock()

				go func() {
					defer func() {
						mu.Lock()
						waiting--
						mu.Unlock()
						fire()
						checkClose()
					}()
					defer recoverAsErrorLogged[[]U](out, cfg.logger, "async_map_buffer")

					mapped, err := mapper(batch)
					if err != nil {
						out.addError(err, captureTrace(err))
						return
					}

					out.add(mapped)
					cfg.metrics.Emitted("async_map_buffer")
				}()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				closeTrigger()
				mu.Lock()
				sourceDone = true
				mu.Unlock()
				checkClose()
			},
		})

		return upstream
	})
}

// AsyncMapSample maps source's most recent value through mapper, dropping
// intermediate values while mapper is busy — the sampling sibling of
// AsyncMapBuffer. As with AsyncMapBuffer, the trigger is
// this operator's own "mapper just finished" signal, not a caller-supplied
// stream, and the first value passes through alone.
func AsyncMapSample[T, U any](source Stream[T], mapper AsyncMapper[T, U], opts ...Option) Stream[U] {
	cfg := resolveOptions(opts...)

	workFinished, fire, closeTrigger := newManualTrigger()

	sampled := Sample(source, workFinished, true)

	return relay[U](sampled.Broadcast(), cfg.metrics, func(out *sink[U]) Subscription {
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

		upstream := sampled.Listen(Listener[T]{
			OnData: func(v T) {
				mu.Lock()
				waiting++
				mu.Unlock()

				go func() {
					defer func() {
						mu.Lock()
						waiting--
						mu.Unlock()
						fire()
						checkClose()
					}()
					defer recoverAsErrorLogged[U](out, cfg.logger, "async_map_sample")

					mapped, err := mapper(v)
					if err != nil {
						out.addError(err, captureTrace(err))
						return
					}

					out.add(mapped)
					cfg.metrics.Emitted("async_map_sample")
				}()
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				closeTrigger()
				mu.Lock()
				sourceDone = true
				mu.Unlock()
				checkClose()
			},
		})

		return upstream
	})
}
