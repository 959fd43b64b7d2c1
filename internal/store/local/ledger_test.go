package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "stash.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	return NewLedger(db)
}

func TestLedgerDefaultUnset(t *testing.T) {
	ledger := newTestLedger(t)

	status, err := ledger.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Unset() {
		t.Errorf("fresh ledger should be unset, got %+v", status)
	}
}

func TestLedgerRecordAndRead(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	if err := ledger.RecordSync(ctx, 3, 7); err != nil {
		t.Fatalf("RecordSync failed: %v", err)
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Unset() {
		t.Fatal("ledger should be set after RecordSync")
	}
	if status.LastUploadCount != 3 || status.LastDownloadCount != 7 {
		t.Errorf("counts = %d/%d, want 3/7", status.LastUploadCount, status.LastDownloadCount)
	}
	if time.Since(status.LastSyncAt) > time.Minute {
		t.Errorf("LastSyncAt not stamped recently: %v", status.LastSyncAt)
	}

	// A second record overwrites the first.
	if err := ledger.RecordSync(ctx, 0, 0); err != nil {
		t.Fatalf("RecordSync failed: %v", err)
	}
	status, err = ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.LastUploadCount != 0 || status.LastDownloadCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", status.LastUploadCount, status.LastDownloadCount)
	}
}

func TestLedgerClear(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	if err := ledger.RecordSync(ctx, 1, 1); err != nil {
		t.Fatalf("RecordSync failed: %v", err)
	}
	if err := ledger.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Unset() {
		t.Errorf("ledger should be unset after Clear, got %+v", status)
	}

	// Clearing an already-empty ledger is fine.
	if err := ledger.Clear(ctx); err != nil {
		t.Errorf("Clear on empty ledger failed: %v", err)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "never"},
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatRelativeTime(c.t, now); got != c.want {
				t.Errorf("FormatRelativeTime() = %q, want %q", got, c.want)
			}
		})
	}
}
