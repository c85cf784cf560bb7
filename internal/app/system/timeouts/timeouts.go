// Package timeouts provides centralized timeout values for handler operations.
//
// These timeouts bound the document store calls an HTTP request makes. They
// can be configured at startup using Configure(); otherwise defaults apply.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Read: single-document reads
//   - Pass: a full reconciliation pass over every verification source
//   - Review: a review action (target lookup plus three ordered writes)
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultRead   = 5 * time.Second
	DefaultPass   = 20 * time.Second
	DefaultReview = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	read   = DefaultRead
	pass   = DefaultPass
	review = DefaultReview
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Read returns the timeout for single-document reads.
func Read() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return read
}

// Pass returns the timeout for a reconciliation pass. A pass reads whole
// collections, so it gets more room than a single read.
func Pass() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pass
}

// Review returns the timeout for one review action.
func Review() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return review
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping   time.Duration
	Read   time.Duration
	Pass   time.Duration
	Review time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored,
// keeping the current (or default) values. Call it during startup before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Read > 0 {
		read = cfg.Read
	}
	if cfg.Pass > 0 {
		pass = cfg.Pass
	}
	if cfg.Review > 0 {
		review = cfg.Review
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	read = DefaultRead
	pass = DefaultPass
	review = DefaultReview
}

// Current returns the current timeout configuration as a Config struct.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:   ping,
		Read:   read,
		Pass:   pass,
		Review: review,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context ended because the deadline passed.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Review(), h.Log, "approve verification")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
