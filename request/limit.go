package request

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var errLimiterSystemIsNil = errors.New("limiter system is nil")

// BasicLimit is a rate limiter that allows a fixed number of requests per
// interval
type BasicLimit struct {
	limiter *rate.Limiter
}

// NewBasicRateLimit returns a limiter allowing actions requests every
// interval
func NewBasicRateLimit(interval time.Duration, actions int) *BasicLimit {
	return &BasicLimit{
		limiter: rate.NewLimiter(
			rate.Every(interval/time.Duration(actions)),
			actions,
		),
	}
}

// Wait implements Limiter
func (b *BasicLimit) Wait(ctx context.Context) error {
	if b == nil || b.limiter == nil {
		return errLimiterSystemIsNil
	}
	return b.limiter.Wait(ctx)
}
