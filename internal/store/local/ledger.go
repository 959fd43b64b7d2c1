package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SyncStatus is the advisory record of the last completed sync run. It
// informs the automatic-trigger policy and the status endpoint; it never
// gates sync correctness.
type SyncStatus struct {
	LastSyncAt        time.Time
	LastUploadCount   int
	LastDownloadCount int
}

// Unset reports whether no sync has been recorded yet.
func (s SyncStatus) Unset() bool { return s.LastSyncAt.IsZero() }

// syncStatusRow persists the ledger as a single fixed-id row.
type syncStatusRow struct {
	ID                int `gorm:"primaryKey"`
	LastSyncAt        time.Time
	LastUploadCount   int
	LastDownloadCount int
}

func (syncStatusRow) TableName() string { return "sync_status" }

const syncStatusRowID = 1

// Ledger persists the last-sync timestamp and counts.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a sync status ledger on top of an opened database.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// RecordSync stores the outcome of a completed sync run, stamping it now.
func (l *Ledger) RecordSync(ctx context.Context, uploaded, downloaded int) error {
	row := syncStatusRow{
		ID:                syncStatusRowID,
		LastSyncAt:        time.Now(),
		LastUploadCount:   uploaded,
		LastDownloadCount: downloaded,
	}
	if err := l.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("record sync status: %w", err)
	}
	return nil
}

// Status returns the last recorded sync, or a zero value if none exists.
func (l *Ledger) Status(ctx context.Context) (SyncStatus, error) {
	var row syncStatusRow
	err := l.db.WithContext(ctx).Where("id = ?", syncStatusRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SyncStatus{}, nil
		}
		return SyncStatus{}, fmt.Errorf("get sync status: %w", err)
	}
	return SyncStatus{
		LastSyncAt:        row.LastSyncAt,
		LastUploadCount:   row.LastUploadCount,
		LastDownloadCount: row.LastDownloadCount,
	}, nil
}

// Clear resets the ledger to unset. Used on account deletion.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.db.WithContext(ctx).Where("id = ?", syncStatusRowID).
		Delete(&syncStatusRow{}).Error; err != nil {
		return fmt.Errorf("clear sync status: %w", err)
	}
	return nil
}

// FormatRelativeTime renders a timestamp as a rough human-readable
// distance from now ("3h ago"). Pure display helper.
func FormatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
