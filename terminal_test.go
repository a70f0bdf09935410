package gostreams

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestEachVisitsInOrder(t *testing.T) {
	is := is.New(t)

	var got []int
	err := Each(FromSlice(1, 2, 3), func(v int, _ uint64) bool {
		got = append(got, v)
		return true
	})

	is.NoErr(err)
	is.Equal(got, []int{1, 2, 3})
}

func TestEachStopsOnFalse(t *testing.T) {
	is := is.New(t)

	var got []int
	err := Each(FromSlice(1, 2, 3, 4), func(v int, _ uint64) bool {
		got = append(got, v)
		return v < 2
	})

	is.NoErr(err)
	is.Equal(got, []int{1, 2})
}

func TestEachReturnsUpstreamError(t *testing.T) {
	is := is.New(t)

	boom := errors.New("boom")

	source := Handle(FromSlice(1), Handlers[int]{
		OnDone: func(out *sink[int]) {
			out.addError(boom, nil)
			out.close()
		},
	})

	err := Each(source, func(int, uint64) bool { return true })
	is.True(errors.Is(err, boom))
}

func TestReduce(t *testing.T) {
	is := is.New(t)

	sum, err := Reduce(FromSlice(1, 2, 3, 4), 0, func(acc, v int, _ uint64) int { return acc + v })
	is.NoErr(err)
	is.Equal(sum, 10)
}

func TestAnyMatch(t *testing.T) {
	is := is.New(t)

	ok, err := AnyMatch(FromSlice(1, 2, 3), func(v int, _ uint64) bool { return v == 2 })
	is.NoErr(err)
	is.True(ok)

	ok, err = AnyMatch(FromSlice(1, 2, 3), func(v int, _ uint64) bool { return v == 9 })
	is.NoErr(err)
	is.True(!ok)
}

func TestAllMatch(t *testing.T) {
	is := is.New(t)

	ok, err := AllMatch(FromSlice(2, 4, 6), func(v int, _ uint64) bool { return v%2 == 0 })
	is.NoErr(err)
	is.True(ok)

	ok, err = AllMatch(FromSlice(2, 3, 6), func(v int, _ uint64) bool { return v%2 == 0 })
	is.NoErr(err)
	is.True(!ok)
}

func TestCount(t *testing.T) {
	is := is.New(t)

	n, err := Count(FromSlice(1, 2, 3, 4, 5))
	is.NoErr(err)
	is.Equal(n, uint64(5))
}

func TestLast(t *testing.T) {
	is := is.New(t)

	v, ok, err := Last(FromSlice(1, 2, 3))
	is.NoErr(err)
	is.True(ok)
	is.Equal(v, 3)

	_, ok, err = Last(Empty[int]())
	is.NoErr(err)
	is.True(!ok)
}
