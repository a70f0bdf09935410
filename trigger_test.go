package gostreams

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestTriggerAggregateFlushesOnTrigger(t *testing.T) {
	is := is.New(t)

	values := make(chan int)
	triggers := make(chan Unit)
	batches := make(chan []int, 8)

	out := TriggerAggregate[int, []int](FromChannel(values), FromChannel(triggers), TriggerOptions[int, []int]{
		Aggregate: func(v int, soFar []int) []int { return append(soFar, v) },
	})

	out.Listen(Listener[[]int]{OnData: func(b []int) { batches <- b }})

	values <- 1
	values <- 2
	triggers <- Unit{}

	select {
	case b := <-batches:
		is.Equal(b, []int{1, 2})
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first batch")
	}

	values <- 3
	triggers <- Unit{}

	select {
	case b := <-batches:
		is.Equal(b, []int{3})
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second batch")
	}
}

func TestTriggerAggregateLongPollFlushesNextValueImmediately(t *testing.T) {
	is := is.New(t)

	values := make(chan int)
	triggers := make(chan Unit)
	out := make(chan int, 8)

	stream := TriggerAggregate[int, int](FromChannel(values), FromChannel(triggers), TriggerOptions[int, int]{
		Aggregate: func(v int, _ int) int { return v },
		LongPoll:  true,
	})

	stream.Listen(Listener[int]{OnData: func(v int) { out <- v }})

	triggers <- Unit{} // arms the sampler since nothing is pending yet
	values <- 42

	select {
	case v := <-out:
		is.Equal(v, 42)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for long-poll flush")
	}
}

func TestTriggerAggregateClosesWhenValuesDoneWithNothingPending(t *testing.T) {
	is := is.New(t)

	done := make(chan struct{})

	out := TriggerAggregate[int, []int](Empty[int](), Never[Unit](), TriggerOptions[int, []int]{
		Aggregate: func(v int, soFar []int) []int { return append(soFar, v) },
	})

	out.Listen(Listener[[]int]{OnDone: func() { close(done) }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected close when values completed with nothing pending")
	}

	is.True(true)
}
