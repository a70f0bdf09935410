package gostreams

// DuplicateKeyError reports that a key could not be added to a map because
// it already exists, raised by CollectMapNoDuplicateKeys.
type DuplicateKeyError[T any, K comparable] struct {
	// Element is the source element that caused the error.
	Element T

	// Key is the key that was already in the map.
	Key K
}

// Error implements error.
func (e *DuplicateKeyError[T, K]) Error() string {
	return "gostreams: duplicate key"
}

// CollectSlice returns an accumulator that collects elements into a slice.
func CollectSlice[T any]() AccumulatorFunc[T, []T] {
	return func(acc []T, elem T, _ uint64) []T {
		return append(acc, elem)
	}
}

// CollectMap returns an accumulator that collects elements into a map.
// Elements are mapped using key and value, respectively. If a key is already
// in the map, the map entry is overwritten.
func CollectMap[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V]) AccumulatorFunc[T, map[K]V] {
	return func(acc map[K]V, elem T, index uint64) map[K]V {
		acc[key(elem, index)] = value(elem, index)
		return acc
	}
}

// CollectMapNoDuplicateKeys drains source into a map keyed by key with
// values from value, returning DuplicateKeyError (and the map collected up
// to that point) if a key would be overwritten.
func CollectMapNoDuplicateKeys[T any, K comparable, V any](source Stream[T], key MapperFunc[T, K], value MapperFunc[T, V]) (map[K]V, error) {
	acc := map[K]V{}

	var dupErr error

	err := Each(source, func(elem T, index uint64) bool {
		k := key(elem, index)

		if _, ok := acc[k]; ok {
			dupErr = &DuplicateKeyError[T, K]{Element: elem, Key: k}
			return false
		}

		acc[k] = value(elem, index)

		return true
	})

	if dupErr != nil {
		return acc, dupErr
	}

	return acc, err
}

// CollectGroup returns an accumulator that groups elements into slices keyed
// by key.
func CollectGroup[T any, K comparable, V any](key MapperFunc[T, K], value MapperFunc[T, V]) AccumulatorFunc[T, map[K][]V] {
	return func(acc map[K][]V, elem T, index uint64) map[K][]V {
		k := key(elem, index)
		acc[k] = append(acc[k], value(elem, index))

		return acc
	}
}

// CollectPartition returns an accumulator that groups elements into two
// slices according to pred.
func CollectPartition[T any, V any](pred PredicateFunc[T], value MapperFunc[T, V]) AccumulatorFunc[T, map[bool][]V] {
	return CollectGroup(MapperFunc[T, bool](pred), value)
}
