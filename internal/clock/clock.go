// Package clock abstracts the one-shot cancelable timer the rate-limit
// family needs, so tests can drive throttle/audit/debounce deterministically
// instead of racing real time.
package clock

import "time"

// Timer is a one-shot timer that invokes fire after Duration, unless
// stopped first. Stop returns false if the timer had already fired or had
// already been stopped.
type Timer interface {
	Stop() bool
}

// Clock creates timers. The zero value is unusable; use Real() or a fake
// from clock_test-style helpers.
type Clock interface {
	AfterFunc(d time.Duration, fire func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by time.AfterFunc.
func Real() Clock { return realClock{} }

func (realClock) AfterFunc(d time.Duration, fire func()) Timer {
	return time.AfterFunc(d, fire)
}
