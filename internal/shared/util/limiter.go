package util

import (
	"context"

	"golang.org/x/time/rate"
)

// RescanLimiter bounds how often watch mode may rerun a full analysis. A
// burst of one keeps the first rescan immediate; saves arriving faster than
// the configured rate block until a token is available.
type RescanLimiter struct {
	inner *rate.Limiter
}

func NewRescanLimiter(perSecond float64) *RescanLimiter {
	return &RescanLimiter{inner: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until the next rescan may start or ctx is cancelled.
func (l *RescanLimiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
