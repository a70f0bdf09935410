package gostreams

// Sample emits the most recent value of source whenever trigger fires,
// using the trigger-aggregate primitive with a replacing aggregate. If
// longPoll is true, a trigger that fires before any value has arrived arms
// the sampler so the very next value passes straight through.
func Sample[T any](source Stream[T], trigger Stream[Unit], longPoll bool) Stream[T] {
	return TriggerAggregate[T, T](source, trigger, TriggerOptions[T, T]{
		Aggregate: func(v T, _ T) T { return v },
		LongPoll:  longPoll,
	})
}
