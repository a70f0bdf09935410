package gostreams

import "sync"

// DataHandler receives a data event.
type DataHandler[T any] func(v T)

// ErrorHandler receives an error event and its optional captured trace.
type ErrorHandler func(err error, trace *TracedError)

// DoneHandler receives the terminal done event.
type DoneHandler func()

// Listener holds the handlers a caller registers with Listen. Any handler
// left nil is treated as a no-op.
type Listener[T any] struct {
	OnData  DataHandler[T]
	OnError ErrorHandler
	OnDone  DoneHandler
}

func (l Listener[T]) data(v T) {
	if l.OnData != nil {
		l.OnData(v)
	}
}

func (l Listener[T]) fail(err error, trace *TracedError) {
	if l.OnError != nil {
		l.OnError(err, trace)
	}
}

func (l Listener[T]) done() {
	if l.OnDone != nil {
		l.OnDone()
	}
}

// Subscription is the handle returned by Listen.
type Subscription interface {
	// ID uniquely identifies this subscription.
	ID() string
	// Cancel cancels the subscription. The returned channel is closed once
	// cancellation has fully propagated to every upstream subscription this
	// operator held.
	Cancel() <-chan struct{}
	// Pause pauses delivery. A no-op if the underlying stream is broadcast.
	Pause()
	// Resume resumes delivery paused by Pause. A no-op if broadcast.
	Resume()
}

// SubscribeFunc creates a Subscription against a stream's source, invoking
// listener's handlers as events occur.
type SubscribeFunc[T any] func(listener Listener[T]) Subscription

// Stream is an ordered, possibly infinite sequence of Data/Error events
// terminated by at most one Done event. Streams are immutable values;
// combinators return new Stream values rather than mutating their input.
type Stream[T any] struct {
	broadcast bool
	subscribe SubscribeFunc[T]
}

// NewStream constructs a stream from a raw subscribe function. Combinators
// that are not expressed via Handle (handler.go), relay (relay.go) or
// TriggerAggregate (trigger.go) call this directly as a direct
// implementation of the protocol.
func NewStream[T any](broadcast bool, subscribe SubscribeFunc[T]) Stream[T] {
	return Stream[T]{broadcast: broadcast, subscribe: subscribe}
}

// Broadcast reports whether the stream accepts multiple concurrent
// subscriptions.
func (s Stream[T]) Broadcast() bool { return s.broadcast }

// Listen subscribes to the stream.
func (s Stream[T]) Listen(listener Listener[T]) Subscription {
	return s.subscribe(listener)
}

// closedSignal returns an already-closed cancel-completion channel, for
// subscriptions whose cancel is synchronous.
func closedSignal() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// delegatingSubscription adapts a set of plain functions to the Subscription
// interface. Used by every combinator in this package instead of a bespoke
// subscription type per operator.
type delegatingSubscription struct {
	id       string
	cancelFn func() <-chan struct{}
	pauseFn  func()
	resumeFn func()
}

func (s *delegatingSubscription) ID() string { return s.id }

func (s *delegatingSubscription) Cancel() <-chan struct{} {
	if s.cancelFn == nil {
		return closedSignal()
	}
	return s.cancelFn()
}

func (s *delegatingSubscription) Pause() {
	if s.pauseFn != nil {
		s.pauseFn()
	}
}

func (s *delegatingSubscription) Resume() {
	if s.resumeFn != nil {
		s.resumeFn()
	}
}

// sink is the write end of an operator's output stream. For a broadcast
// output it fans out to every currently attached listener; for a
// single-subscription output it holds at most one. Writes after close are
// silently suppressed.
type sink[T any] struct {
	mu        sync.Mutex
	broadcast bool
	listeners map[string]Listener[T]
	closed    bool
}

func newSink[T any](broadcast bool) *sink[T] {
	return &sink[T]{broadcast: broadcast, listeners: map[string]Listener[T]{}}
}

func (s *sink[T]) attach(id string, l Listener[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if !s.broadcast && len(s.listeners) > 0 {
		panic(ErrDoubleListen)
	}
	s.listeners[id] = l
	return true
}

func (s *sink[T]) detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

func (s *sink[T]) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *sink[T]) snapshotLocked() []Listener[T] {
	ls := make([]Listener[T], 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	return ls
}

func (s *sink[T]) add(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ls := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range ls {
		l.data(v)
	}
}

func (s *sink[T]) addError(err error, trace *TracedError) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ls := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range ls {
		l.fail(err, trace)
	}
}

func (s *sink[T]) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ls := s.snapshotLocked()
	s.listeners = map[string]Listener[T]{}
	s.mu.Unlock()

	for _, l := range ls {
		l.done()
	}
}

func (s *sink[T]) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
