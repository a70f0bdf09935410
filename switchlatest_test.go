package gostreams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncStream emits every value synchronously within the Listen call itself,
// with no background goroutine — useful for tests that need a fully
// deterministic interleaving between an outer and inner stream.
func syncStream[T any](values ...T) Stream[T] {
	return NewStream[T](false, func(l Listener[T]) Subscription {
		for _, v := range values {
			l.data(v)
		}
		l.done()

		return &delegatingSubscription{id: newID()}
	})
}

func drainStream[T any](t *testing.T, s Stream[T]) []T {
	t.Helper()

	var got []T
	done := make(chan struct{})

	s.Listen(Listener[T]{
		OnData: func(v T) { got = append(got, v) },
		OnDone: func() { close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out draining stream")
	}

	return got
}

func TestSwitchLatestForwardsSequentialInners(t *testing.T) {
	outer := syncStream(syncStream(1, 2), syncStream(3, 4))

	got := drainStream(t, SwitchLatest(outer))
	require.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestSwitchLatestCancelsPreviousInner(t *testing.T) {
	release := make(chan struct{})

	inner1 := NewStream[int](false, func(l Listener[int]) Subscription {
		cancelCh := make(chan struct{})

		go func() {
			select {
			case <-release:
				l.data(1)
				l.done()
			case <-cancelCh:
			}
		}()

		return &delegatingSubscription{
			id: newID(),
			cancelFn: func() <-chan struct{} {
				close(cancelCh)
				return closedSignal()
			},
		}
	})

	inner2 := FromSlice(2, 3)

	outerCh := make(chan Stream[int])
	outer := FromChannel(outerCh)

	got := make(chan int, 8)
	doneCh := make(chan struct{})

	SwitchLatest(outer).Listen(Listener[int]{
		OnData: func(v int) { got <- v },
		OnDone: func() { close(doneCh) },
	})

	outerCh <- inner1
	outerCh <- inner2
	close(outerCh)

	var results []int
	timeout := time.After(time.Second)

loop:
	for {
		select {
		case v := <-got:
			results = append(results, v)
		case <-doneCh:
			break loop
		case <-timeout:
			t.Fatal("timed out waiting for switch to complete")
		}
	}

	require.Equal(t, []int{2, 3}, results)
}

// TestSwitchLatestPropagatesPauseAndResumeToActiveInner guards against
// pausing the output leaving the active inner producer running unthrottled:
// Pause/Resume on the returned subscription must reach whichever inner is
// currently active, not just the outer subscription.
func TestSwitchLatestPropagatesPauseAndResumeToActiveInner(t *testing.T) {
	paused := make(chan struct{}, 1)
	resumed := make(chan struct{}, 1)

	inner := NewStream[int](false, func(l Listener[int]) Subscription {
		return &delegatingSubscription{
			id:       newID(),
			pauseFn:  func() { paused <- struct{}{} },
			resumeFn: func() { resumed <- struct{}{} },
		}
	})

	sub := SwitchLatest(syncStream(inner)).Listen(Listener[int]{})

	sub.Pause()
	select {
	case <-paused:
	case <-time.After(time.Second):
		t.Fatal("expected Pause to reach the active inner subscription")
	}

	sub.Resume()
	select {
	case <-resumed:
	case <-time.After(time.Second):
		t.Fatal("expected Resume to reach the active inner subscription")
	}
}

func TestSwitchMapProjectsInline(t *testing.T) {
	out := SwitchMap(syncStream(1, 2), func(v int) Stream[int] {
		return syncStream(v, v*10)
	})

	got := drainStream(t, out)
	require.Equal(t, []int{1, 10, 2, 20}, got)
}
