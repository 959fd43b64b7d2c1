package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/store/remote"
)

// LocalStore is the slice of the on-device store the reconciler needs.
// List returns active records only; trash never reaches the reconciler.
type LocalStore interface {
	List(ctx context.Context, kind domain.Kind) ([]*domain.Record, error)
	Add(ctx context.Context, rec *domain.Record) error
}

// RemoteStore is the slice of the remote client the reconciler needs.
// UpsertMany must be insert-if-absent: an existing remote row is never
// overwritten, which is what makes re-running a leg safe.
type RemoteStore interface {
	FetchAll(ctx context.Context, kind domain.Kind, ownerID string) ([]*domain.Record, error)
	UpsertMany(ctx context.Context, kind domain.Kind, ownerID string, records []*domain.Record) (remote.UpsertResult, error)
}

// StatusLedger records completed runs. Advisory only.
type StatusLedger interface {
	RecordSync(ctx context.Context, uploaded, downloaded int) error
}

// Result reports one sync run. PartialErr carries per-record failures
// that reduced the counts without failing the run.
type Result struct {
	Uploaded   int
	Downloaded int
	PartialErr error
}

// Reconciler computes and applies the upload and download sets between
// the local store and the remote store. Sync never removes a record from
// either side and never touches an existing remote row, so the two sides
// converge to the union of their active record sets.
type Reconciler struct {
	local  LocalStore
	remote RemoteStore
	ledger StatusLedger
	logger logger.Logger

	mu       sync.Mutex
	inFlight map[domain.Kind]bool
}

// NewReconciler creates a reconciler. The ledger may be nil (runs are
// then not recorded, which is fine for the force legs in tests).
func NewReconciler(local LocalStore, remoteStore RemoteStore, ledger StatusLedger, log logger.Logger) *Reconciler {
	return &Reconciler{
		local:    local,
		remote:   remoteStore,
		ledger:   ledger,
		logger:   log,
		inFlight: make(map[domain.Kind]bool),
	}
}

// begin marks a kind as having a run outstanding. Returns false when a
// run is already in flight for that kind.
func (r *Reconciler) begin(kind domain.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[kind] {
		return false
	}
	r.inFlight[kind] = true
	return true
}

func (r *Reconciler) end(kind domain.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, kind)
}

// Sync runs both legs for one kind: fetch local and remote sets, upload
// local records missing remotely, download remote records missing
// locally. A remote fetch failure aborts before any mutation; per-record
// failures inside a leg reduce counts without failing the run.
func (r *Reconciler) Sync(ctx context.Context, kind domain.Kind, ownerID string) (Result, error) {
	if !r.begin(kind) {
		return Result{}, ErrSyncInFlight
	}
	defer r.end(kind)

	res, err := r.run(ctx, kind, ownerID, true, true)
	if err != nil {
		return res, err
	}
	r.record(ctx, res.Uploaded, res.Downloaded)
	return res, nil
}

// SyncAll runs Sync for every kind in order and records the summed counts
// as one ledger entry. The first fatal error stops the remaining kinds.
func (r *Reconciler) SyncAll(ctx context.Context, ownerID string) (Result, error) {
	total := Result{}
	for _, kind := range domain.Kinds {
		if !r.begin(kind) {
			return total, ErrSyncInFlight
		}
		res, err := r.run(ctx, kind, ownerID, true, true)
		r.end(kind)
		if err != nil {
			return total, err
		}
		total.Uploaded += res.Uploaded
		total.Downloaded += res.Downloaded
		// Every kind's partial failures must survive into the summary.
		total.PartialErr = errors.Join(total.PartialErr, res.PartialErr)
	}
	r.record(ctx, total.Uploaded, total.Downloaded)
	return total, nil
}

// ForceUpload runs the upload leg alone. Manual escape hatch for a user
// who suspects a partial sync state.
func (r *Reconciler) ForceUpload(ctx context.Context, kind domain.Kind, ownerID string) (Result, error) {
	if !r.begin(kind) {
		return Result{}, ErrSyncInFlight
	}
	defer r.end(kind)

	res, err := r.run(ctx, kind, ownerID, true, false)
	if err != nil {
		return res, err
	}
	r.record(ctx, res.Uploaded, res.Downloaded)
	return res, nil
}

// ForceDownload runs the download leg alone.
func (r *Reconciler) ForceDownload(ctx context.Context, kind domain.Kind, ownerID string) (Result, error) {
	if !r.begin(kind) {
		return Result{}, ErrSyncInFlight
	}
	defer r.end(kind)

	res, err := r.run(ctx, kind, ownerID, false, true)
	if err != nil {
		return res, err
	}
	r.record(ctx, res.Uploaded, res.Downloaded)
	return res, nil
}

// run executes one reconciliation pass. The ordering is fixed: fetch
// local, fetch remote, upload, download. The upload leg must not run
// without a successful remote fetch, otherwise records that exist
// remotely but were invisible during a transient fetch error would be
// re-uploaded against a stale view.
func (r *Reconciler) run(ctx context.Context, kind domain.Kind, ownerID string, upload, download bool) (Result, error) {
	local, err := r.local.List(ctx, kind)
	if err != nil {
		return Result{}, &StorageError{Err: err}
	}

	remoteSet, err := r.remote.FetchAll(ctx, kind, ownerID)
	if err != nil {
		return Result{}, &FetchError{Err: err}
	}

	res := Result{}

	if upload {
		toUpload := missingFrom(local, remoteSet)
		if len(toUpload) > 0 {
			up, err := r.remote.UpsertMany(ctx, kind, ownerID, toUpload)
			res.Uploaded = up.Succeeded
			failed := up.FailedIDs
			if err != nil && len(failed) == 0 {
				failed = recordIDs(toUpload)
			}
			if len(failed) > 0 {
				// Not fatal: the missing records stay in toUpload next run.
				res.PartialErr = &PartialError{Leg: "upload", FailedIDs: failed}
				r.logger.Warn("some records failed to upload",
					logger.String("kind", string(kind)),
					logger.Int("failed", len(failed)))
			}
		}
	}

	if download {
		toDownload := missingFrom(remoteSet, local)
		var failed []string
		for _, rec := range toDownload {
			if err := r.local.Add(ctx, rec); err != nil {
				failed = append(failed, rec.ID)
				continue
			}
			res.Downloaded++
		}
		if len(failed) > 0 {
			res.PartialErr = &PartialError{Leg: "download", FailedIDs: failed}
			r.logger.Warn("some records failed to download",
				logger.String("kind", string(kind)),
				logger.Int("failed", len(failed)))
		}
	}

	r.logger.Info("sync pass completed",
		logger.String("kind", string(kind)),
		logger.Int("uploaded", res.Uploaded),
		logger.Int("downloaded", res.Downloaded))

	return res, nil
}

// record writes the run to the ledger. Ledger failures are logged, never
// surfaced: the ledger is advisory and must not fail a completed sync.
func (r *Reconciler) record(ctx context.Context, uploaded, downloaded int) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.RecordSync(ctx, uploaded, downloaded); err != nil {
		r.logger.Warn("failed to record sync status", logger.Error(err))
	}
}

// missingFrom returns the records of src whose id is absent from other,
// preserving src order.
func missingFrom(src, other []*domain.Record) []*domain.Record {
	present := make(map[string]struct{}, len(other))
	for _, rec := range other {
		present[rec.ID] = struct{}{}
	}

	var out []*domain.Record
	for _, rec := range src {
		if _, ok := present[rec.ID]; !ok {
			out = append(out, rec)
		}
	}
	return out
}

func recordIDs(records []*domain.Record) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}
