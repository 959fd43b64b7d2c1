package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/store/local"
	"github.com/MrSnakeDoc/stash/internal/syncer"
)

// Syncer is the slice of the reconciler the runner drives.
type Syncer interface {
	SyncAll(ctx context.Context, ownerID string) (syncer.Result, error)
}

// StatusReader exposes the last recorded sync for due-ness checks.
type StatusReader interface {
	Status(ctx context.Context) (local.SyncStatus, error)
}

// SyncRunner triggers automatic sync runs: once at app start and then on
// a periodic check, consulting the trigger policy each time. Manual syncs
// go straight to the reconciler and never pass through here.
type SyncRunner struct {
	syncer  Syncer
	status  StatusReader
	policy  syncer.TriggerPolicy
	ownerID string
	logger  logger.Logger
}

// NewSyncRunner creates an automatic sync runner.
func NewSyncRunner(sc Syncer, status StatusReader, policy syncer.TriggerPolicy, ownerID string, log logger.Logger) *SyncRunner {
	return &SyncRunner{
		syncer:  sc,
		status:  status,
		policy:  policy,
		ownerID: ownerID,
		logger:  log,
	}
}

// Register schedules the periodic due-ness check and runs one check
// immediately (the app-start trigger).
func (sr *SyncRunner) Register(ctx context.Context, svc *Service, checkInterval time.Duration) error {
	if _, err := svc.ScheduleInterval(checkInterval, func() {
		sr.RunIfDue(ctx)
	}); err != nil {
		return err
	}

	sr.RunIfDue(ctx)
	return nil
}

// RunIfDue runs a full sync when the policy says one is due. Failures are
// logged and dropped; the next opportunity is the next tick or a manual
// trigger.
func (sr *SyncRunner) RunIfDue(ctx context.Context) {
	status, err := sr.status.Status(ctx)
	if err != nil {
		sr.logger.Warn("failed to read sync status, skipping automatic sync",
			logger.Error(err))
		return
	}

	if !sr.policy.IsSyncDue(status.LastSyncAt, time.Now()) {
		sr.logger.Debug("automatic sync not due yet")
		return
	}

	sr.logger.Info("automatic sync due, starting run")
	res, err := sr.syncer.SyncAll(ctx, sr.ownerID)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInFlight) {
			sr.logger.Debug("sync already in flight, skipping automatic run")
			return
		}
		sr.logger.Error("automatic sync failed", logger.Error(err))
		return
	}

	sr.logger.Info("automatic sync completed",
		logger.Int("uploaded", res.Uploaded),
		logger.Int("downloaded", res.Downloaded))
}
