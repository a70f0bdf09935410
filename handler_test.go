package gostreams

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestHandleForwardsByDefault(t *testing.T) {
	is := is.New(t)

	out := Handle(FromSlice(1, 2, 3), Handlers[int]{})

	got, err := ToSlice(out)
	is.NoErr(err)
	is.Equal(got, []int{1, 2, 3})
}

func TestHandleCustomOnData(t *testing.T) {
	is := is.New(t)

	doubled := Handle(FromSlice(1, 2, 3), Handlers[int]{
		OnData: func(v int, out *sink[int]) { out.add(v * 2) },
	})

	got, err := ToSlice(doubled)
	is.NoErr(err)
	is.Equal(got, []int{2, 4, 6})
}

func TestHandleRunsOncePerEventForBroadcast(t *testing.T) {
	is := is.New(t)

	calls := 0
	source := Multicast(FromSlice(1, 2, 3))

	out := Handle(source, Handlers[int]{
		OnData: func(v int, sink *sink[int]) {
			calls++
			sink.add(v)
		},
	})

	var a, b []int
	doneA, doneB := make(chan struct{}), make(chan struct{})

	out.Listen(Listener[int]{OnData: func(v int) { a = append(a, v) }, OnDone: func() { close(doneA) }})
	out.Listen(Listener[int]{OnData: func(v int) { b = append(b, v) }, OnDone: func() { close(doneB) }})

	<-doneA
	<-doneB

	is.Equal(calls, 3)
	is.Equal(a, []int{1, 2, 3})
	is.Equal(b, []int{1, 2, 3})
}

func TestHandlePanicBecomesStreamError(t *testing.T) {
	is := is.New(t)

	boom := errors.New("boom")

	out := Handle(FromSlice(1), Handlers[int]{
		OnData: func(v int, out *sink[int]) { panic(boom) },
	})

	var gotErr error
	done := make(chan struct{})

	out.Listen(Listener[int]{
		OnError: func(err error, trace *TracedError) { gotErr = err },
		OnDone:  func() { close(done) },
	})

	<-done
	is.True(errors.Is(gotErr, boom))
}
