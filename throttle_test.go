package gostreams

import (
	"testing"
	"time"

	"github.com/lucent-labs/gostreams/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestThrottleEmitsLeadingAndDropsWithinPeriod(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := throttle(FromChannel(values), 10*time.Millisecond, false, clk)

	got := make(chan int, 8)
	out.Listen(Listener[int]{OnData: func(v int) { got <- v }})

	values <- 1
	require.Equal(t, 1, <-got)

	values <- 2 // dropped, no trailing

	clk.Advance(10 * time.Millisecond)

	values <- 3
	require.Equal(t, 3, <-got)
}

func TestThrottleTrailingEmitsPendingOnPeriodEnd(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := throttle(FromChannel(values), 10*time.Millisecond, true, clk)

	got := make(chan int, 8)
	out.Listen(Listener[int]{OnData: func(v int) { got <- v }})

	values <- 1
	require.Equal(t, 1, <-got)

	values <- 2
	values <- 3 // supersedes 2 as the pending trailing value

	clk.Advance(10 * time.Millisecond)

	require.Equal(t, 3, <-got)
}

func TestThrottleDeferCloseUntilTrailingFlush(t *testing.T) {
	values := make(chan int)
	clk := clock.NewFake()

	out := throttle(FromChannel(values), 10*time.Millisecond, true, clk)

	got := make(chan int, 8)
	doneCh := make(chan struct{})

	out.Listen(Listener[int]{
		OnData: func(v int) { got <- v },
		OnDone: func() { close(doneCh) },
	})

	values <- 1
	require.Equal(t, 1, <-got)

	values <- 2
	close(values)

	select {
	case <-doneCh:
		t.Fatal("should not close while a trailing value is pending")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(10 * time.Millisecond)

	require.Equal(t, 2, <-got)
	<-doneCh
}
