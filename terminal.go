package gostreams

import "sync"

// ConsumerFunc consumes element elem at the given 0-based index, in arrival
// order. Returning false requests early cancellation of the subscription
// (used by AnyMatch/AllMatch to short-circuit).
type ConsumerFunc[T any] func(elem T, index uint64) (cont bool)

// AccumulatorFunc folds element elem, at index, into accumulator acc,
// returning the (possibly new) accumulator.
type AccumulatorFunc[T, A any] func(acc A, elem T, index uint64) A

// subBox lets a listener registered before Listen returns still reach the
// subscription object once it exists.
type subBox struct {
	mu  sync.Mutex
	sub Subscription
}

func (b *subBox) set(s Subscription) {
	b.mu.Lock()
	b.sub = s
	b.mu.Unlock()
}

func (b *subBox) cancel() {
	b.mu.Lock()
	s := b.sub
	b.mu.Unlock()

	if s != nil {
		s.Cancel()
	}
}

// Each blocks until source reaches Done (or each requests cancellation),
// calling each for every data event in arrival order. It returns the first
// error observed on source, if any.
func Each[T any](source Stream[T], each ConsumerFunc[T]) error {
	done := make(chan struct{})

	var (
		finishOnce sync.Once
		mu         sync.Mutex
		firstErr   error
		index      uint64
		box        subBox
	)

	finish := func() { finishOnce.Do(func() { close(done) }) }

	sub := source.Listen(Listener[T]{
		OnData: func(v T) {
			i := index
			index++

			if !each(v, i) {
				finish()
				box.cancel()
			}
		},
		OnError: func(err error, _ *TracedError) {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		},
		OnDone: finish,
	})
	box.set(sub)

	<-done

	mu.Lock()
	defer mu.Unlock()

	return firstErr
}

// Reduce folds every element of source into acc using reduce, returning the
// final accumulator and the first stream error, if any.
func Reduce[T, A any](source Stream[T], acc A, reduce AccumulatorFunc[T, A]) (A, error) {
	err := Each(source, func(elem T, index uint64) bool {
		acc = reduce(acc, elem, index)
		return true
	})

	return acc, err
}

// AnyMatch returns true as soon as pred matches an element of source,
// short-circuiting the subscription. If no element matches, it returns false
// once source closes.
func AnyMatch[T any](source Stream[T], pred func(elem T, index uint64) bool) (bool, error) {
	anyMatch := false

	err := Each(source, func(elem T, index uint64) bool {
		if !pred(elem, index) {
			return true
		}

		anyMatch = true

		return false
	})

	return anyMatch, err
}

// AllMatch returns false as soon as an element of source fails pred,
// short-circuiting the subscription. If every element matches, it returns
// true once source closes.
func AllMatch[T any](source Stream[T], pred func(elem T, index uint64) bool) (bool, error) {
	allMatch := true

	err := Each(source, func(elem T, index uint64) bool {
		if pred(elem, index) {
			return true
		}

		allMatch = false

		return false
	})

	return allMatch, err
}

// Count returns the number of elements produced by source before it closes.
func Count[T any](source Stream[T]) (uint64, error) {
	count := uint64(0)

	err := Each(source, func(_ T, _ uint64) bool {
		count++
		return true
	})

	return count, err
}

// Last returns the final element produced by source, or ok=false if source
// closed without ever emitting: scan(initial, combine) followed by Last
// equals fold(initial, combine).
func Last[T any](source Stream[T]) (value T, ok bool, err error) {
	err = Each(source, func(elem T, _ uint64) bool {
		value, ok = elem, true
		return true
	})

	return value, ok, err
}

// ToSlice collects every element of source into a slice, in arrival order.
func ToSlice[T any](source Stream[T]) ([]T, error) {
	return Reduce(source, []T(nil), func(acc []T, elem T, _ uint64) []T {
		return append(acc, elem)
	})
}
