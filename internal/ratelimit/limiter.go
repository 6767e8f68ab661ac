package ratelimit

import "context"

// RateLimiter caps outbound push throughput per bucket. Buckets are push
// service hosts, so each vendor gets its own allowance.
type RateLimiter interface {
	Allow(ctx context.Context, bucket string) (bool, error)
	Wait(ctx context.Context, bucket string) error
}
