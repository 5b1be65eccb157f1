// Package ratelimit throttles upload requests per owner.
package ratelimit

import (
	"context"
	"time"
)

// Window caps requests inside a sliding window. A zero Limit disables it.
type Window struct {
	Duration time.Duration
	Limit    int
}

type Config struct {
	PerMinute int
	PerHour   int
}

// Windows expands the config into the windows to check, shortest first.
func (c Config) Windows() []Window {
	return []Window{
		{Duration: time.Minute, Limit: c.PerMinute},
		{Duration: time.Hour, Limit: c.PerHour},
	}
}

func (c Config) Enabled() bool {
	return c.PerMinute > 0 || c.PerHour > 0
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, cfg Config) (bool, error)
	Reset(ctx context.Context, key string) error
}
