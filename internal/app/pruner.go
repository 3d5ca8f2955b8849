package app

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultPruneInterval = 10 * time.Minute
	maxBackoff           = 30 * time.Minute
)

// Pruner deletes session values older than ttl.
type Pruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartPruner launches a background goroutine that expires stale sessions at
// a fixed cadence, backing off while pruning fails. It returns immediately.
func StartPruner(ctx context.Context, p Pruner, ttl, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if prune(ctx, p, ttl, logger) {
				failures = 0
			} else {
				failures++
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

func prune(ctx context.Context, p Pruner, ttl time.Duration, logger *slog.Logger) bool {
	n, err := p.Prune(ctx, ttl)
	if err != nil {
		logger.Warn("session prune failed", "error", err)
		return false
	}
	if n > 0 {
		logger.Debug("pruned stale session values", "rows", n)
	}
	return true
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
