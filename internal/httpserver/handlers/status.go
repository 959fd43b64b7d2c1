package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/store/local"
)

type statusResponse struct {
	LastSyncAt        *time.Time       `json:"last_sync_at,omitempty"`
	LastSyncRelative  string           `json:"last_sync_relative"`
	LastUploadCount   int              `json:"last_upload_count"`
	LastDownloadCount int              `json:"last_download_count"`
	RemoteCounts      map[string]int64 `json:"remote_counts,omitempty"`
}

// SyncStatus returns the ledger plus best-effort remote counts for
// display. Remote count failures are logged, not surfaced: the status
// screen must render even when offline.
func SyncStatus(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := d.Ledger.Status(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		resp := statusResponse{
			LastSyncRelative:  local.FormatRelativeTime(status.LastSyncAt, now()),
			LastUploadCount:   status.LastUploadCount,
			LastDownloadCount: status.LastDownloadCount,
		}
		if !status.Unset() {
			t := status.LastSyncAt
			resp.LastSyncAt = &t
		}

		counts := make(map[string]int64, len(domain.Kinds))
		for _, kind := range domain.Kinds {
			n, err := d.Remote.Count(ctx, kind, d.OwnerID)
			if err != nil {
				d.Logger.Debug("remote count unavailable",
					logger.String("kind", string(kind)),
					logger.Error(err))
				counts = nil
				break
			}
			counts[string(kind)] = n
		}
		resp.RemoteCounts = counts

		writeJSON(w, http.StatusOK, resp)
	}
}

// ClearSyncStatus resets the ledger. Called when the account is deleted.
func ClearSyncStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Ledger.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
