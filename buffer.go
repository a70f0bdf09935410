package gostreams

// Buffer collects source's events into a list and emits that list whenever
// trigger fires, using the trigger-aggregate primitive with long-poll
// enabled: a trigger that fires before any value has arrived causes the
// very next value to pass through immediately as a single-element buffer.
func Buffer[T any](source Stream[T], trigger Stream[Unit]) Stream[[]T] {
	return TriggerAggregate[T, []T](source, trigger, TriggerOptions[T, []T]{
		Aggregate: func(v T, soFar []T) []T { return append(soFar, v) },
		LongPoll:  true,
	})
}
