package gostreams

import "sync"

// ScanCombine folds an arriving value into the running accumulator. It may
// take arbitrarily long; Go expresses that as an ordinary blocking call
// rather than a callback, since the scan worker already runs off the
// delivering goroutine.
type ScanCombine[T, Acc any] func(acc Acc, v T) (Acc, error)

type scanItem[T any] struct {
	v    T
	done bool
}

// Scan emits a running accumulation of source via combine, starting from
// initial. Output order equals input order even when combine is slow: a
// single worker goroutine processes arrivals sequentially, so a call to
// combine still in flight holds subsequent events in the worker's queue.
// If the output is broadcast,
// combine still runs exactly once per source event, not once per listener,
// because there is exactly one worker per Scan instance.
func Scan[T, Acc any](source Stream[T], initial Acc, combine ScanCombine[T, Acc], opts ...Option) Stream[Acc] {
	cfg := resolveOptions(opts...)

	return relay[Acc](source.Broadcast(), cfg.metrics, func(out *sink[Acc]) Subscription {
		work := make(chan scanItem[T], 256)

		var closeWork sync.Once
		stop := func() { closeWork.Do(func() { close(work) }) }

		go func() {
			acc := initial

			for it := range work {
				if it.done {
					out.close()
					return
				}

				func(v T) {
					defer recoverAsErrorLogged[Acc](out, cfg.logger, "scan")

					next, err := combine(acc, v)
					if err != nil {
						out.addError(err, captureTrace(err))
						return
					}

					acc = next
					out.add(next)
					cfg.metrics.Emitted("scan")
				}(it.v)
			}
		}()

		upstream := source.Listen(Listener[T]{
			OnData: func(v T) {
				defer func() { recover() }() // sending on a closed work channel after cancel

				work <- scanItem[T]{v: v}
			},
			OnError: func(err error, trace *TracedError) { out.addError(err, trace) },
			OnDone: func() {
				defer func() { recover() }()

				work <- scanItem[T]{done: true}
			},
		})

		return withTimerCancel(upstream, stop)
	})
}
