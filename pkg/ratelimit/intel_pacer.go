// Package ratelimit paces calls against external collaborators.
package ratelimit

import (
	"context"
	"time"
)

// Config holds pacer configuration.
type Config struct {
	MaxConcurrent int           // concurrent in-flight calls within one batch
	BatchDelay    time.Duration // pause between consecutive batches
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent: 10,
		BatchDelay:    1 * time.Second,
	}
}

// BatchPacer bounds in-batch concurrency with a semaphore and enforces a
// cool-down delay between batches so the enrichment collaborator's rate
// limits are respected.
type BatchPacer struct {
	semaphore chan struct{}
	delay     time.Duration
}

// NewBatchPacer creates a pacer from config.
func NewBatchPacer(cfg *Config) *BatchPacer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &BatchPacer{
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		delay:     cfg.BatchDelay,
	}
}

// Acquire blocks until a concurrency slot is free or the context ends.
// The returned release function must be called when the call completes.
func (p *BatchPacer) Acquire(ctx context.Context) (func(), error) {
	select {
	case p.semaphore <- struct{}{}:
		return func() { <-p.semaphore }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WaitBetweenBatches sleeps the configured delay, returning early if the
// context is cancelled.
func (p *BatchPacer) WaitBetweenBatches(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
