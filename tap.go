package gostreams

// TapHandlers holds Tap's three optional observation callbacks. A nil
// handler is simply skipped; unlike Handlers, none of these write to the
// output themselves — Tap always forwards the event afterward regardless of
// what the callback does.
type TapHandlers[T any] struct {
	OnData  func(v T)
	OnError func(err error, trace *TracedError)
	OnDone  func()
}

// Tap runs the matching handler as a side effect for every event passing
// through, before forwarding that event, without altering the stream. A
// panic inside any handler is swallowed rather than turned into a stream
// error, since Tap exists purely for observation and must never be able to
// break the pipeline it's attached to. In the broadcast case each handler
// still runs exactly once per event, not once per listener, since it is
// built on Handle.
func Tap[T any](source Stream[T], h TapHandlers[T]) Stream[T] {
	return Handle(source, Handlers[T]{
		OnData: func(v T, out *sink[T]) {
			if h.OnData != nil {
				func() {
					defer func() { recover() }()
					h.OnData(v)
				}()
			}

			out.add(v)
		},
		OnError: func(err error, trace *TracedError, out *sink[T]) {
			if h.OnError != nil {
				func() {
					defer func() { recover() }()
					h.OnError(err, trace)
				}()
			}

			out.addError(err, trace)
		},
		OnDone: func(out *sink[T]) {
			if h.OnDone != nil {
				func() {
					defer func() { recover() }()
					h.OnDone()
				}()
			}

			out.close()
		},
	})
}
