package remote

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited bounds the request rate of a transport. Callers block until a
// token is available or their context ends.
type RateLimited struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimited wraps t. A non-positive rps disables limiting and returns t
// unchanged.
func NewRateLimited(t Transport, rps float64, burst int) Transport {
	if rps <= 0 {
		return t
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: t, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Resolve(ctx context.Context, id int64) (ObjectInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ObjectInfo{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.next.Resolve(ctx, id)
}

func (r *RateLimited) FetchChunk(ctx context.Context, locator string, index int64) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.next.FetchChunk(ctx, locator, index)
}

// Unwrap returns the limited transport.
func (r *RateLimited) Unwrap() Transport {
	return r.next
}
