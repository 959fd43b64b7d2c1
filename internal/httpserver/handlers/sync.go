package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/syncer"
)

type syncResponse struct {
	Success    bool   `json:"success"`
	Uploaded   int    `json:"uploaded"`
	Downloaded int    `json:"downloaded"`
	Partial    string `json:"partial,omitempty"`
}

// Sync triggers a manual sync: both legs, one kind when ?kind= is given,
// every kind otherwise. Manual syncs ignore the trigger policy.
func Sync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		kind, ok, all := kindParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}

		var res syncer.Result
		var err error
		if all {
			res, err = d.Reconciler.SyncAll(ctx, d.OwnerID)
		} else {
			res, err = d.Reconciler.Sync(ctx, kind, d.OwnerID)
		}
		respondSync(w, d, res, err)
	}
}

// ForceUpload triggers the upload leg alone for one kind.
func ForceUpload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok, all := kindParam(r)
		if !ok || all {
			writeError(w, http.StatusBadRequest, "kind query parameter is required")
			return
		}
		res, err := d.Reconciler.ForceUpload(r.Context(), kind, d.OwnerID)
		respondSync(w, d, res, err)
	}
}

// ForceDownload triggers the download leg alone for one kind.
func ForceDownload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok, all := kindParam(r)
		if !ok || all {
			writeError(w, http.StatusBadRequest, "kind query parameter is required")
			return
		}
		res, err := d.Reconciler.ForceDownload(r.Context(), kind, d.OwnerID)
		respondSync(w, d, res, err)
	}
}

// kindParam reads the optional kind query parameter.
// Returns (kind, valid, all): all is true when no kind was given.
func kindParam(r *http.Request) (domain.Kind, bool, bool) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return "", true, true
	}
	kind := domain.Kind(raw)
	return kind, kind.Valid(), false
}

func respondSync(w http.ResponseWriter, d deps.Deps, res syncer.Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, syncer.ErrSyncInFlight):
			writeError(w, http.StatusConflict, "a sync is already running")
		default:
			// Fetch and storage failures are both total: nothing was
			// mutated, the caller just retries later.
			d.Logger.Error("manual sync failed", logger.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	resp := syncResponse{
		Success:    true,
		Uploaded:   res.Uploaded,
		Downloaded: res.Downloaded,
	}
	if res.PartialErr != nil {
		resp.Partial = res.PartialErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
