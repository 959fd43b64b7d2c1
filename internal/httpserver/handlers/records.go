package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
)

type createRecordRequest struct {
	// Bookmark fields
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Tag   string `json:"tag,omitempty"`
	// Reminder fields
	Destination string    `json:"destination,omitempty"`
	TriggerAt   time.Time `json:"trigger_at,omitempty"`
	Recurrence  string    `json:"recurrence,omitempty"`
}

// ListRecords returns the active records of one kind.
func ListRecords(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}

		records, err := d.Store.List(r.Context(), kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// CreateRecord creates a new local record. It gets a fresh identity here;
// sync copies it to remote on the next run.
func CreateRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}

		var rec *domain.Record
		switch kind {
		case domain.KindBookmark:
			if req.URL == "" {
				writeError(w, http.StatusBadRequest, "url is required")
				return
			}
			rec = domain.NewBookmark(req.URL, req.Title, req.Tag)
			if d.TrashRetentionDays > 0 {
				rec.RetentionDays = d.TrashRetentionDays
			}
		case domain.KindReminder:
			if req.Destination == "" || req.TriggerAt.IsZero() {
				writeError(w, http.StatusBadRequest, "destination and trigger_at are required")
				return
			}
			rec = domain.NewReminder(req.Destination, req.TriggerAt, req.Recurrence)
		}

		if err := d.Store.Add(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// UpdateRecord replaces the payload of an existing record.
func UpdateRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		id := chi.URLParam(r, "id")

		rec, err := d.Store.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if rec.Kind != kind {
			writeError(w, http.StatusNotFound, "record not found for kind")
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}

		switch kind {
		case domain.KindBookmark:
			if req.URL != "" {
				rec.Bookmark.URL = req.URL
			}
			if req.Title != "" {
				rec.Bookmark.Title = req.Title
			}
			rec.Bookmark.Tag = req.Tag
		case domain.KindReminder:
			if req.Destination != "" {
				rec.Reminder.Destination = req.Destination
			}
			if !req.TriggerAt.IsZero() {
				rec.Reminder.TriggerAt = req.TriggerAt
			}
			rec.Reminder.Recurrence = req.Recurrence
		}

		if err := d.Store.Update(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// DeleteRecord removes a record: bookmarks go to trash (soft-delete),
// reminders are purged outright since they have no trash semantics.
func DeleteRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		id := chi.URLParam(r, "id")

		var err error
		switch kind {
		case domain.KindBookmark:
			err = d.Store.SoftDelete(r.Context(), id, d.TrashRetentionDays)
		case domain.KindReminder:
			err = d.Store.Purge(r.Context(), id)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RestoreRecord clears the trash marker on a bookmark.
func RestoreRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Store.Restore(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListTrash returns the soft-deleted records.
func ListTrash(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Store.ListTrash(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// PurgeRecord permanently deletes a trashed record.
func PurgeRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Store.Purge(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
