package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/store/remote"
)

// fakeLocal is an in-memory LocalStore. Records keep insertion order so
// tests can assert on upload ordering.
type fakeLocal struct {
	records []*domain.Record
	listErr error
	addErr  map[string]error
}

func (f *fakeLocal) List(_ context.Context, kind domain.Kind) ([]*domain.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Record
	for _, rec := range f.records {
		if rec.Kind == kind && !rec.Trashed() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLocal) Add(_ context.Context, rec *domain.Record) error {
	if err := f.addErr[rec.ID]; err != nil {
		return err
	}
	for _, existing := range f.records {
		if existing.ID == rec.ID {
			return fmt.Errorf("duplicate id %s", rec.ID)
		}
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLocal) ids(kind domain.Kind) map[string]bool {
	out := make(map[string]bool)
	for _, rec := range f.records {
		if rec.Kind == kind && !rec.Trashed() {
			out[rec.ID] = true
		}
	}
	return out
}

// fakeRemote mimics the insert-if-absent remote table. Stored records are
// deep copies so overwrite attempts would be visible.
type fakeRemote struct {
	records    map[string]domain.Record
	fetchErr   error
	upsertFail map[string]bool
	fetchGate  chan struct{} // when set, bookmark fetches block until the gate closes
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records:    make(map[string]domain.Record),
		upsertFail: make(map[string]bool),
	}
}

func (f *fakeRemote) FetchAll(_ context.Context, kind domain.Kind, _ string) ([]*domain.Record, error) {
	if f.fetchGate != nil && kind == domain.KindBookmark {
		<-f.fetchGate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*domain.Record
	for id := range f.records {
		rec := f.records[id]
		if rec.Kind == kind {
			cp := rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRemote) UpsertMany(_ context.Context, _ domain.Kind, _ string, records []*domain.Record) (remote.UpsertResult, error) {
	res := remote.UpsertResult{}
	for _, rec := range records {
		if f.upsertFail[rec.ID] {
			res.FailedIDs = append(res.FailedIDs, rec.ID)
			continue
		}
		if _, exists := f.records[rec.ID]; !exists {
			f.records[rec.ID] = *rec
		}
		// Insert-if-absent: an existing row is untouched and still counts
		// as succeeded.
		res.Succeeded++
	}
	return res, nil
}

type fakeLedger struct {
	calls      int
	uploaded   int
	downloaded int
}

func (f *fakeLedger) RecordSync(_ context.Context, uploaded, downloaded int) error {
	f.calls++
	f.uploaded = uploaded
	f.downloaded = downloaded
	return nil
}

func testLogger() logger.Logger { return logger.New("error", false) }

func bookmark(id, title string) *domain.Record {
	return &domain.Record{
		ID:        id,
		Kind:      domain.KindBookmark,
		Bookmark:  &domain.BookmarkPayload{URL: "https://" + id + ".example.com", Title: title},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestSyncUnionConvergence(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a"), bookmark("B", "b")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")
	remoteStore.records["C"] = *bookmark("C", "c")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.Sync(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Uploaded != 1 || res.Downloaded != 1 {
		t.Errorf("counts = %d/%d, want 1/1", res.Uploaded, res.Downloaded)
	}

	localIDs := local.ids(domain.KindBookmark)
	for _, id := range []string{"A", "B", "C"} {
		if !localIDs[id] {
			t.Errorf("local missing %s after sync", id)
		}
		if _, ok := remoteStore.records[id]; !ok {
			t.Errorf("remote missing %s after sync", id)
		}
	}
	if len(localIDs) != 3 || len(remoteStore.records) != 3 {
		t.Errorf("sizes = %d local / %d remote, want 3/3", len(localIDs), len(remoteStore.records))
	}
}

func TestSyncIdempotent(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	ctx := context.Background()

	if _, err := r.Sync(ctx, domain.KindBookmark, "user-1"); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	res, err := r.Sync(ctx, domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if res.Uploaded != 0 || res.Downloaded != 0 {
		t.Errorf("second run counts = %d/%d, want 0/0", res.Uploaded, res.Downloaded)
	}
}

func TestSyncNeverOverwritesRemote(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "local title")}}
	remoteStore := newFakeRemote()
	remoteStore.records["A"] = *bookmark("A", "remote title")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.Sync(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Uploaded != 0 || res.Downloaded != 0 {
		t.Errorf("counts = %d/%d, want 0/0", res.Uploaded, res.Downloaded)
	}

	if got := remoteStore.records["A"].Bookmark.Title; got != "remote title" {
		t.Errorf("remote title = %q, must remain %q", got, "remote title")
	}
	if got := local.records[0].Bookmark.Title; got != "local title" {
		t.Errorf("local title = %q, must remain %q", got, "local title")
	}
}

func TestSyncExcludesTrash(t *testing.T) {
	trashed := bookmark("T", "trashed")
	now := time.Now()
	trashed.DeletedAt = &now

	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a"), trashed}}
	remoteStore := newFakeRemote()

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.Sync(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Uploaded != 1 {
		t.Errorf("uploaded = %d, want 1", res.Uploaded)
	}
	if _, ok := remoteStore.records["T"]; ok {
		t.Error("trashed record must never be uploaded")
	}
}

func TestSyncFetchFailureAbortsWithoutMutation(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")
	remoteStore.fetchErr = errors.New("network down")

	ledger := &fakeLedger{}
	r := NewReconciler(local, remoteStore, ledger, testLogger())
	ctx := context.Background()

	_, err := r.Sync(ctx, domain.KindBookmark, "user-1")
	if err == nil {
		t.Fatal("Sync should fail when the remote fetch fails")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("error = %v, want *FetchError", err)
	}
	if len(local.records) != 1 {
		t.Errorf("local mutated on failed sync: %d records", len(local.records))
	}
	if len(remoteStore.records) != 1 {
		t.Errorf("remote mutated on failed sync: %d records", len(remoteStore.records))
	}
	if ledger.calls != 0 {
		t.Errorf("ledger recorded a failed run (%d calls)", ledger.calls)
	}

	// With the network back, a retry behaves as a fresh sync.
	remoteStore.fetchErr = nil
	res, err := r.Sync(ctx, domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Uploaded != 1 || res.Downloaded != 1 {
		t.Errorf("retry counts = %d/%d, want 1/1", res.Uploaded, res.Downloaded)
	}
}

func TestSyncLocalListFailureIsFatal(t *testing.T) {
	local := &fakeLocal{listErr: errors.New("disk error")}
	r := NewReconciler(local, newFakeRemote(), nil, testLogger())

	_, err := r.Sync(context.Background(), domain.KindBookmark, "user-1")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("error = %v, want *StorageError", err)
	}
}

func TestSyncPartialUploadSelfHeals(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a"), bookmark("B", "b")}}
	remoteStore := newFakeRemote()
	remoteStore.upsertFail["B"] = true

	r := NewReconciler(local, remoteStore, nil, testLogger())
	ctx := context.Background()

	res, err := r.Sync(ctx, domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Uploaded != 1 {
		t.Errorf("uploaded = %d, want 1", res.Uploaded)
	}
	var pe *PartialError
	if !errors.As(res.PartialErr, &pe) {
		t.Fatalf("PartialErr = %v, want *PartialError", res.PartialErr)
	}
	if len(pe.FailedIDs) != 1 || pe.FailedIDs[0] != "B" {
		t.Errorf("FailedIDs = %v, want [B]", pe.FailedIDs)
	}

	// Second run retries exactly the failed record and none of the
	// already-succeeded ones.
	remoteStore.upsertFail = map[string]bool{}
	res, err = r.Sync(ctx, domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if res.Uploaded != 1 {
		t.Errorf("second run uploaded = %d, want 1", res.Uploaded)
	}
	if res.PartialErr != nil {
		t.Errorf("second run PartialErr = %v, want nil", res.PartialErr)
	}
	if _, ok := remoteStore.records["B"]; !ok {
		t.Error("record B still missing remotely after retry")
	}
}

func TestSyncPartialDownloadReducesCount(t *testing.T) {
	local := &fakeLocal{addErr: map[string]error{"C": errors.New("disk full")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")
	remoteStore.records["C"] = *bookmark("C", "c")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.Sync(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Downloaded != 1 {
		t.Errorf("downloaded = %d, want 1", res.Downloaded)
	}
	var pe *PartialError
	if !errors.As(res.PartialErr, &pe) || pe.Leg != "download" {
		t.Errorf("PartialErr = %v, want download *PartialError", res.PartialErr)
	}
}

func TestForceUploadOnlyUploads(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.ForceUpload(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("ForceUpload failed: %v", err)
	}
	if res.Uploaded != 1 || res.Downloaded != 0 {
		t.Errorf("counts = %d/%d, want 1/0", res.Uploaded, res.Downloaded)
	}
	if len(local.records) != 1 {
		t.Error("ForceUpload must not touch the local store")
	}
}

func TestForceDownloadOnlyDownloads(t *testing.T) {
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a")}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.ForceDownload(context.Background(), domain.KindBookmark, "user-1")
	if err != nil {
		t.Fatalf("ForceDownload failed: %v", err)
	}
	if res.Uploaded != 0 || res.Downloaded != 1 {
		t.Errorf("counts = %d/%d, want 0/1", res.Uploaded, res.Downloaded)
	}
	if _, ok := remoteStore.records["A"]; ok {
		t.Error("ForceDownload must not touch the remote store")
	}
}

func TestSyncSingleFlightPerKind(t *testing.T) {
	local := &fakeLocal{}
	remoteStore := newFakeRemote()
	remoteStore.fetchGate = make(chan struct{})

	r := NewReconciler(local, remoteStore, nil, testLogger())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Sync(ctx, domain.KindBookmark, "user-1")
	}()

	// Wait until the first run is inside FetchAll.
	for i := 0; i < 100; i++ {
		r.mu.Lock()
		inFlight := r.inFlight[domain.KindBookmark]
		r.mu.Unlock()
		if inFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := r.Sync(ctx, domain.KindBookmark, "user-1"); !errors.Is(err, ErrSyncInFlight) {
		t.Errorf("concurrent Sync error = %v, want ErrSyncInFlight", err)
	}

	// A different kind is not blocked by the bookmark run.
	if _, err := r.Sync(ctx, domain.KindReminder, "user-1"); err != nil {
		t.Errorf("reminder sync should not be blocked: %v", err)
	}

	close(remoteStore.fetchGate)
	<-done

	// Once the first run finished, the guard is released.
	if _, err := r.Sync(ctx, domain.KindBookmark, "user-1"); err != nil {
		t.Errorf("Sync after completion failed: %v", err)
	}
}

func TestSyncAllRecordsSummedCounts(t *testing.T) {
	reminder := &domain.Record{
		ID:        "R1",
		Kind:      domain.KindReminder,
		Reminder:  &domain.ReminderPayload{Destination: "https://example.com", TriggerAt: time.Now()},
		CreatedAt: time.Now(),
	}
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a"), reminder}}
	remoteStore := newFakeRemote()
	remoteStore.records["B"] = *bookmark("B", "b")

	ledger := &fakeLedger{}
	r := NewReconciler(local, remoteStore, ledger, testLogger())

	res, err := r.SyncAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if res.Uploaded != 2 || res.Downloaded != 1 {
		t.Errorf("counts = %d/%d, want 2/1", res.Uploaded, res.Downloaded)
	}
	if ledger.calls != 1 {
		t.Errorf("ledger calls = %d, want 1", ledger.calls)
	}
	if ledger.uploaded != 2 || ledger.downloaded != 1 {
		t.Errorf("ledger counts = %d/%d, want 2/1", ledger.uploaded, ledger.downloaded)
	}
}

func TestSyncAllKeepsEveryKindsPartialError(t *testing.T) {
	reminder := &domain.Record{
		ID:        "R1",
		Kind:      domain.KindReminder,
		Reminder:  &domain.ReminderPayload{Destination: "https://example.com", TriggerAt: time.Now()},
		CreatedAt: time.Now(),
	}
	local := &fakeLocal{records: []*domain.Record{bookmark("A", "a"), reminder}}
	remoteStore := newFakeRemote()
	remoteStore.upsertFail["A"] = true
	remoteStore.upsertFail["R1"] = true

	r := NewReconciler(local, remoteStore, nil, testLogger())
	res, err := r.SyncAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if res.PartialErr == nil {
		t.Fatal("SyncAll dropped the partial failures")
	}

	// Both the bookmark and the reminder failure must survive into the
	// summary, not just whichever kind ran last.
	msg := res.PartialErr.Error()
	if !strings.Contains(msg, "A") || !strings.Contains(msg, "R1") {
		t.Errorf("PartialErr = %q, want both failed ids reported", msg)
	}
}
