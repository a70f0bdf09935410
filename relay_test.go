package gostreams

import (
	"testing"

	"github.com/lucent-labs/gostreams/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestRelayResubscribesAfterBroadcastDrainsToZero exercises relay's shared
// primitive directly through Tap, a thin relay-based combinator: once every
// listener of a broadcast output cancels, upstream is torn down, and a later
// Listen must call init again rather than attach to a dead sink.
func TestRelayResubscribesAfterBroadcastDrainsToZero(t *testing.T) {
	var subscribeCount int

	source := NewStream[int](true, func(l Listener[int]) Subscription {
		subscribeCount++
		n := subscribeCount
		go func() {
			l.data(n)
			l.done()
		}()
		return &delegatingSubscription{id: newID()}
	})

	tapped := Tap(source, TapHandlers[int]{})

	first, err := ToSlice(tapped)
	require.NoError(t, err)
	require.Equal(t, []int{1}, first)

	second, err := ToSlice(tapped)
	require.NoError(t, err)
	require.Equal(t, []int{2}, second)

	require.Equal(t, 2, subscribeCount)
}

func TestRelaySharesUpstreamAcrossConcurrentBroadcastListeners(t *testing.T) {
	values := make(chan int)
	source := Multicast(FromChannel(values))
	tapped := Tap(source, TapHandlers[int]{})

	gotA := make(chan int, 4)
	gotB := make(chan int, 4)

	tapped.Listen(Listener[int]{OnData: func(v int) { gotA <- v }})
	tapped.Listen(Listener[int]{OnData: func(v int) { gotB <- v }})

	values <- 1
	values <- 2

	require.Equal(t, 1, <-gotA)
	require.Equal(t, 2, <-gotA)
	require.Equal(t, 1, <-gotB)
	require.Equal(t, 2, <-gotB)
}

func TestRelayReportsActiveSubscriptionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, "gostreams", "relay_test")

	out := AsyncWhere(FromSlice(1, 2, 3), func(v int) (bool, error) { return true, nil }, WithMetrics(collector))

	sub := out.Listen(Listener[int]{})
	require.Equal(t, float64(1), testutil.ToFloat64(collector.ActiveSubscriptions))

	<-sub.Cancel()
	require.Equal(t, float64(0), testutil.ToFloat64(collector.ActiveSubscriptions))
}
