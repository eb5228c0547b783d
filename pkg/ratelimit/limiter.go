package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// New returns a limiter spacing requests evenly over a minute.
// A non-positive requestsPerMinute yields an Unlimited limiter.
func New(requestsPerMinute int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited{}
	}
	return NewInterval(time.Minute / time.Duration(requestsPerMinute))
}

// Interval enforces a minimum spacing between requests with no bursting
type Interval struct {
	limiter *rate.Limiter
}

// NewInterval creates a limiter admitting one request per interval
func NewInterval(interval time.Duration) *Interval {
	return &Interval{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (i *Interval) Allow() bool {
	return i.limiter.Allow()
}

func (i *Interval) Wait(ctx context.Context) error {
	return i.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool { return true }

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
