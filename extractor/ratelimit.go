package extractor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher spaces out requests made through next. Locations share
// one host, so a single limiter covers them all.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher wraps next. A non-positive perSecond returns next
// unchanged.
func NewRateLimitedFetcher(next Fetcher, perSecond float64, burst int) Fetcher {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedFetcher{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (f *RateLimitedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("rate limit: %w", err)}
	}
	return f.next.Fetch(ctx, url)
}

// Close closes the wrapped fetcher when it holds resources.
func (f *RateLimitedFetcher) Close() {
	if c, ok := f.next.(interface{ Close() }); ok {
		c.Close()
	}
}
