package gostreams

import "github.com/google/uuid"

// newID mints a subscription identity used for sink fan-out bookkeeping and
// as the value of Subscription.ID. It is not attached to log lines or
// metrics.
func newID() string {
	return uuid.NewString()
}
