package progress

import (
	"context"
	"time"

	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/repository/contract"
	"exam-grading-be/internal/repository/memory"
)

// Cleaner removes finished progress sessions older than the retention
// window on a fixed interval.
type Cleaner struct {
	repo      contract.ProgressRepository
	store     *memory.ProgressRepository
	retention time.Duration
	interval  time.Duration
	log       logger.ILogger
}

func NewCleaner(repo contract.ProgressRepository, store *memory.ProgressRepository, retention, interval time.Duration, log logger.ILogger) *Cleaner {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &Cleaner{
		repo:      repo,
		store:     store,
		retention: retention,
		interval:  interval,
		log:       log,
	}
}

// Run blocks until the context is cancelled. Callers start it on its
// own goroutine.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-c.retention)
	removed, err := c.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.log.Warn("progress", "progress cleanup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	swept := 0
	if c.store != nil {
		swept = c.store.Sweep()
	}
	if removed > 0 || swept > 0 {
		c.log.Info("progress", "cleaned up finished progress sessions", map[string]interface{}{
			"persistent_removed": removed,
			"memory_swept":       swept,
		})
	}
}
