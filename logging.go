package gostreams

import (
	"fmt"

	"go.uber.org/zap"
)

// recoverAsErrorLogged behaves like recoverAsError but also logs the
// recovered panic at Warn, for the rate-limit and flattening families that
// thread an *Options through: recovered user-callback panics are logged at
// Warn, never Error — the stream error itself is the operator's output, not
// an operational failure.
func recoverAsErrorLogged[T any](out *sink[T], logger *zap.Logger, operator string) {
	if r := recover(); r != nil {
		err := panicToError(r)
		if logger != nil {
			logger.Warn("recovered panic in user callback", zap.String("operator", operator), zap.Error(err))
		}
		out.addError(err, captureTrace(err))
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v any }

func (p *panicValue) Error() string {
	return fmt.Sprintf("gostreams: panic in user callback: %v", p.v)
}
