package gostreams

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCombineLatestWaitsForEveryInputThenCombines(t *testing.T) {
	aCh := make(chan int)
	bCh := make(chan int)

	out := CombineLatest(FromChannel(aCh), FromChannel(bCh))

	got := make(chan []int, 8)
	out.Listen(Listener[[]int]{OnData: func(v []int) { got <- v }})

	aCh <- 1

	select {
	case v := <-got:
		t.Fatalf("unexpected emission %v before every input has emitted", v)
	case <-time.After(20 * time.Millisecond):
	}

	bCh <- 10

	require.Equal(t, []int{1, 10}, <-got)

	aCh <- 2
	require.Equal(t, []int{2, 10}, <-got)
}

func TestCombineLatestClosesImmediatelyWhenAnInputClosesWithoutEmitting(t *testing.T) {
	doneCh := make(chan struct{})

	out := CombineLatest(FromSlice(1, 2), Empty[int]())
	out.Listen(Listener[[]int]{OnDone: func() { close(doneCh) }})

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("expected immediate close when a slot never emits")
	}
}

// TestCombineLatestAllCancelPropagatesToEverySlot guards against a leak:
// canceling the output must cancel every inner slot subscription, not just
// the outer one, or a slot's upstream goroutine runs forever after nobody is
// listening anymore.
func TestCombineLatestAllCancelPropagatesToEverySlot(t *testing.T) {
	aCanceled := make(chan struct{})
	bCanceled := make(chan struct{})

	makeSlot := func(canceled chan struct{}) Stream[int] {
		return NewStream[int](false, func(l Listener[int]) Subscription {
			return &delegatingSubscription{
				id: newID(),
				cancelFn: func() <-chan struct{} {
					close(canceled)
					return closedSignal()
				},
			}
		})
	}

	// syncStream delivers both slots inside Listen, so both slot
	// subscriptions exist before Cancel runs.
	outer := syncStream(makeSlot(aCanceled), makeSlot(bCanceled))
	out := CombineLatestAll[int](outer)

	sub := out.Listen(Listener[[]int]{})
	<-sub.Cancel()

	select {
	case <-aCanceled:
	case <-time.After(time.Second):
		t.Fatal("expected the first slot's subscription to be canceled")
	}

	select {
	case <-bCanceled:
	case <-time.After(time.Second):
		t.Fatal("expected the second slot's subscription to be canceled")
	}
}

func TestCombineLatest2WaitsForBothThenCombines(t *testing.T) {
	aCh := make(chan int)
	bCh := make(chan string)

	out := CombineLatest2(FromChannel(aCh), FromChannel(bCh), func(a int, b string) (string, error) {
		return b, nil
	})

	got := make(chan string, 8)
	out.Listen(Listener[string]{OnData: func(v string) { got <- v }})

	aCh <- 1

	select {
	case v := <-got:
		t.Fatalf("unexpected emission %q before b has ever emitted", v)
	case <-time.After(20 * time.Millisecond):
	}

	bCh <- "x"
	require.Equal(t, "x", <-got)

	aCh <- 2
	require.Equal(t, "x", <-got)
}

func TestCombineLatest2PausesBothWhileFRuns(t *testing.T) {
	aCh := make(chan int)
	bCh := make(chan int)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	out := CombineLatest2(FromChannel(aCh), FromChannel(bCh), func(a, b int) (int, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return a + b, nil
	})

	got := make(chan int, 8)
	out.Listen(Listener[int]{OnData: func(v int) { got <- v }})

	aCh <- 1
	bCh <- 10

	<-entered

	// While f is running, both inputs are paused: sending more values here
	// would block forever on an unpaused, unbuffered channel source if the
	// pause were not in effect, so this only proves the pipeline didn't
	// deadlock once f returns and both sides resume.
	close(release)

	require.Equal(t, 11, <-got)

	aCh <- 2
	require.Equal(t, 12, <-got)
}

func TestCombineLatest2ErrorFromFBecomesStreamError(t *testing.T) {
	boom := errors.New("boom")

	out := CombineLatest2(FromSlice(1), FromSlice(2), func(a, b int) (int, error) {
		return 0, boom
	})

	_, err := ToSlice(out)
	require.True(t, errors.Is(err, boom))
}

func TestCombineLatest2ClosesImmediatelyWhenAnInputClosesWithoutEmitting(t *testing.T) {
	doneCh := make(chan struct{})

	out := CombineLatest2(FromSlice(1), Empty[int](), func(a, b int) (int, error) {
		return a + b, nil
	})
	out.Listen(Listener[int]{OnDone: func() { close(doneCh) }})

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("expected immediate close when an input never emits")
	}
}

func TestCombineLatest2ClosesOnceBothInputsClose(t *testing.T) {
	out := CombineLatest2(FromSlice(1, 2), FromSlice(10), func(a, b int) (int, error) {
		return a + b, nil
	})

	got, err := ToSlice(out)
	require.NoError(t, err)
	require.Equal(t, []int{11, 12}, got)
}

func TestWithLatestFromPairsSourceWithOtherLatest(t *testing.T) {
	otherCh := make(chan string)
	sourceCh := make(chan int)

	out := WithLatestFrom(FromChannel(sourceCh), FromChannel(otherCh))

	got := make(chan WithLatest[int, string], 8)
	out.Listen(Listener[WithLatest[int, string]]{OnData: func(v WithLatest[int, string]) { got <- v }})

	sourceCh <- 1 // dropped: other has not emitted yet

	select {
	case v := <-got:
		t.Fatalf("unexpected emission %+v before other ever emitted", v)
	case <-time.After(20 * time.Millisecond):
	}

	otherCh <- "a"
	sourceCh <- 2

	require.Equal(t, WithLatest[int, string]{Value: 2, Latest: "a"}, <-got)
}
