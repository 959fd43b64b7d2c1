package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/stash/internal/logger"
)

// TrashStore is the slice of the local store the collector needs.
type TrashStore interface {
	PurgeExpired(ctx context.Context, now time.Time) ([]string, error)
}

// TrashCollector permanently purges trashed bookmarks whose retention
// window has elapsed. Purge is local-only; nothing here touches remote.
type TrashCollector struct {
	store  TrashStore
	logger logger.Logger
}

// NewTrashCollector creates a trash collector.
func NewTrashCollector(store TrashStore, log logger.Logger) *TrashCollector {
	return &TrashCollector{store: store, logger: log}
}

// Register schedules periodic collection and runs one pass immediately.
func (tc *TrashCollector) Register(ctx context.Context, svc *Service, interval time.Duration) error {
	if _, err := svc.ScheduleInterval(interval, func() {
		if err := tc.Collect(ctx); err != nil {
			tc.logger.Error("trash collection failed", logger.Error(err))
		}
	}); err != nil {
		return err
	}

	if err := tc.Collect(ctx); err != nil {
		tc.logger.Warn("initial trash collection failed", logger.Error(err))
	}
	return nil
}

// Collect removes trashed records past their retention window.
func (tc *TrashCollector) Collect(ctx context.Context) error {
	purged, err := tc.store.PurgeExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	if len(purged) > 0 {
		tc.logger.Info("trash collection completed",
			logger.Int("purged", len(purged)))
	} else {
		tc.logger.Debug("no expired trash to purge")
	}
	return nil
}
