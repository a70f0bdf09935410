package gostreams

import (
	"testing"
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestAuditEmitsMostRecentAtPeriodEnd(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := audit(FromChannel(values), 10*time.Millisecond, clk)

	got := make(chan int, 8)
	out.Listen(Listener[int]{OnData: func(v int) { got <- v }})

	values <- 1
	values <- 2
	values <- 3

	clk.Advance(10 * time.Millisecond)

	require.Equal(t, 3, <-got)
}

func TestAuditStartsNewPeriodAfterEmission(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := audit(FromChannel(values), 10*time.Millisecond, clk)

	got := make(chan int, 8)
	out.Listen(Listener[int]{OnData: func(v int) { got <- v }})

	values <- 1
	clk.Advance(10 * time.Millisecond)
	require.Equal(t, 1, <-got)

	values <- 2
	clk.Advance(10 * time.Millisecond)
	require.Equal(t, 2, <-got)
}

func TestAuditClosesImmediatelyWhenIdle(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := audit(FromChannel(values), 10*time.Millisecond, clk)

	doneCh := make(chan struct{})
	out.Listen(Listener[int]{OnDone: func() { close(doneCh) }})

	close(values)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("expected immediate close while idle")
	}
}

func TestAuditDefersCloseUntilTimerFires(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := audit(FromChannel(values), 10*time.Millisecond, clk)

	got := make(chan int, 8)
	doneCh := make(chan struct{})

	out.Listen(Listener[int]{
		OnData: func(v int) { got <- v },
		OnDone: func() { close(doneCh) },
	})

	values <- 1
	close(values)

	select {
	case <-doneCh:
		t.Fatal("should not close before the pending timer fires")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(10 * time.Millisecond)

	require.Equal(t, 1, <-got)
	<-doneCh
}
