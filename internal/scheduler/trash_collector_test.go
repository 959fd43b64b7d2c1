package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/stash/internal/logger"
)

type fakeTrashStore struct {
	purged []string
	err    error
	calls  int
}

func (f *fakeTrashStore) PurgeExpired(_ context.Context, _ time.Time) ([]string, error) {
	f.calls++
	return f.purged, f.err
}

func TestTrashCollectorCollect(t *testing.T) {
	store := &fakeTrashStore{purged: []string{"a", "b"}}
	tc := NewTrashCollector(store, logger.New("error", false))

	if err := tc.Collect(context.Background()); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if store.calls != 1 {
		t.Errorf("PurgeExpired calls = %d, want 1", store.calls)
	}
}

func TestTrashCollectorPropagatesError(t *testing.T) {
	store := &fakeTrashStore{err: errors.New("disk error")}
	tc := NewTrashCollector(store, logger.New("error", false))

	if err := tc.Collect(context.Background()); err == nil {
		t.Error("Collect should surface store errors")
	}
}

func TestServiceScheduleInterval(t *testing.T) {
	svc := NewService()

	if _, err := svc.ScheduleInterval(0, func() {}); err == nil {
		t.Error("ScheduleInterval(0) should fail")
	}
	if _, err := svc.ScheduleInterval(time.Minute, func() {}); err != nil {
		t.Errorf("ScheduleInterval(1m) failed: %v", err)
	}

	svc.Start()
	svc.Stop()
}
