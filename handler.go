package gostreams

// Handlers holds the pluggable data/error/done handlers of the Handler
// Transformer primitive. Each handler receives the output sink and is
// responsible for writing whatever it wants into it (zero, one, or many
// events); a nil handler forwards the corresponding event verbatim, which is
// only meaningful because Handle is same-type (T -> T).
type Handlers[T any] struct {
	OnData  func(v T, out *sink[T])
	OnError func(err error, trace *TracedError, out *sink[T])
	OnDone  func(out *sink[T])
}

// Handle implements the Handler Transformer primitive: it wraps source with
// three pluggable handlers, each invoked exactly once per source event
// regardless of how many listeners the (broadcast) output has, writing into
// a sink shared by every current listener. Only suited to handlers that
// carry no per-cycle state of their own, since h is built once and reused
// across every relisten; Tap is the case that fits. Operators that need
// fresh per-cycle state build directly on relay instead.
func Handle[T any](source Stream[T], h Handlers[T]) Stream[T] {
	return relay[T](source.Broadcast(), nil, func(out *sink[T]) Subscription {
		return source.Listen(Listener[T]{
			OnData: func(v T) {
				defer recoverAsError[T](out)
				if h.OnData != nil {
					h.OnData(v, out)
				} else {
					out.add(v)
				}
			},
			OnError: func(err error, trace *TracedError) {
				defer recoverAsError[T](out)
				if h.OnError != nil {
					h.OnError(err, trace, out)
				} else {
					out.addError(err, trace)
				}
			},
			OnDone: func() {
				if h.OnDone != nil {
					h.OnDone(out)
				} else {
					out.close()
				}
			},
		})
	})
}
