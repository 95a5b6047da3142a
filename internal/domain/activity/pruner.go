package activity

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredDeleter deletes activities older than a cutoff.
type ExpiredDeleter interface {
	DeleteOlderThan(ctx context.Context, oldest time.Time) (DeleteStats, error)
}

// Pruner periodically deletes activities older than a retention window.
type Pruner struct {
	deleter   ExpiredDeleter
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a pruner. A non-positive retention disables it.
func NewPruner(deleter ExpiredDeleter, retention, interval time.Duration, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{
		deleter:   deleter,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Run prunes once immediately and then on every tick until ctx is done.
func (p *Pruner) Run(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PruneOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("activity pruning failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PruneOnce deletes activities older than now minus the retention window.
func (p *Pruner) PruneOnce(ctx context.Context) (DeleteStats, error) {
	if p.retention <= 0 {
		return DeleteStats{}, nil
	}
	cutoff := p.now().UTC().Add(-p.retention)
	return p.deleter.DeleteOlderThan(ctx, cutoff)
}
