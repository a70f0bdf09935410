package gostreams

import (
	"sync"

	"github.com/lucent-labs/gostreams/metrics"
)

// relay implements the common shape shared by nearly every combinator in
// this package: subscribe upstream once, on the first Listen of each
// subscribe cycle (see reset below), fan the
// resulting events out to every attached listener through a shared sink, and
// delegate Pause/Resume/Cancel to whatever init subscribed to. init may
// subscribe to one or several upstream streams; when it does, it should
// return a combineSubscriptions value so Cancel/Pause/Resume reach all of
// them. Every call to the returned stream's Listen counts as one active
// subscription on m's gauge, from the moment Listen returns until Cancel
// finishes tearing it down; m may be nil, matching Collector's own
// nil-receiver no-op discipline.
func relay[U any](broadcast bool, m *metrics.Collector, init func(out *sink[U]) Subscription) Stream[U] {
	var (
		mu       sync.Mutex
		out      *sink[U]
		upstream Subscription
	)

	// reset drops the cached sink and upstream subscription once nothing is
	// listening to them anymore, so the next Listen calls init again instead
	// of attaching to a dead sink that will never emit another event.
	reset := func(dead *sink[U]) {
		mu.Lock()
		if out == dead {
			out = nil
			upstream = nil
		}
		mu.Unlock()
	}

	ensure := func(id string, listener Listener[U]) *sink[U] {
		mu.Lock()
		defer mu.Unlock()

		if out != nil && !out.isClosed() {
			out.attach(id, listener)
			return out
		}

		// Attach before init so events an upstream delivers synchronously,
		// inside its own Listen call, reach this listener.
		out = newSink[U](broadcast)
		out.attach(id, listener)
		upstream = init(out)

		return out
	}

	return NewStream[U](broadcast, func(listener Listener[U]) Subscription {
		id := newID()
		outSink := ensure(id, listener)
		m.SubscriptionOpened()

		return &delegatingSubscription{
			id: id,
			cancelFn: func() <-chan struct{} {
				outSink.detach(id)
				m.SubscriptionClosed()

				if broadcast && outSink.listenerCount() > 0 {
					// Other broadcast listeners remain attached to the
					// shared upstream subscription.
					return closedSignal()
				}

				mu.Lock()
				us := upstream
				mu.Unlock()

				reset(outSink)

				if us == nil {
					return closedSignal()
				}

				return us.Cancel()
			},
			pauseFn: func() {
				mu.Lock()
				us := upstream
				mu.Unlock()

				if us != nil && !broadcast {
					us.Pause()
				}
			},
			resumeFn: func() {
				mu.Lock()
				us := upstream
				mu.Unlock()

				if us != nil && !broadcast {
					us.Resume()
				}
			},
		}
	})
}

// withTimerCancel wraps sub so that Cancel also stops a locally owned timer
// (or any other cleanup) before canceling upstream. Every rate-limit
// combinator uses this so canceling the output cancels all pending timers.
func withTimerCancel(sub Subscription, stop func()) Subscription {
	return &delegatingSubscription{
		id: sub.ID(),
		cancelFn: func() <-chan struct{} {
			stop()
			return sub.Cancel()
		},
		pauseFn:  sub.Pause,
		resumeFn: sub.Resume,
	}
}

// multiSubscription combines several upstream subscriptions into one, for
// combinators (merge, combineLatest, switchLatest's outer+inner) that hold
// more than one upstream subscription at a time.
type multiSubscription struct {
	id   string
	subs []Subscription
}

func combineSubscriptions(id string, subs ...Subscription) Subscription {
	return &multiSubscription{id: id, subs: subs}
}

func (m *multiSubscription) ID() string { return m.id }

func (m *multiSubscription) Cancel() <-chan struct{} {
	chans := make([]<-chan struct{}, len(m.subs))
	for i, s := range m.subs {
		chans[i] = s.Cancel()
	}

	done := make(chan struct{})

	go func() {
		for _, c := range chans {
			<-c
		}
		close(done)
	}()

	return done
}

func (m *multiSubscription) Pause() {
	for _, s := range m.subs {
		s.Pause()
	}
}

func (m *multiSubscription) Resume() {
	for _, s := range m.subs {
		s.Resume()
	}
}
