package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two record variants handled by the sync engine.
type Kind string

const (
	// KindBookmark is a saved link.
	KindBookmark Kind = "bookmark"
	// KindReminder is a scheduled action (open a destination at a time).
	KindReminder Kind = "reminder"
)

// Kinds lists every syncable kind, in the order sync runs process them.
var Kinds = []Kind{KindBookmark, KindReminder}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindBookmark || k == KindReminder
}

// DefaultRetentionDays is how long a trashed bookmark survives before it
// becomes eligible for permanent purge.
const DefaultRetentionDays = 30

// BookmarkPayload holds the bookmark-specific fields of a Record.
type BookmarkPayload struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Tag   string `json:"tag,omitempty"`
}

// ReminderPayload holds the scheduled-action-specific fields of a Record.
type ReminderPayload struct {
	// Destination is what the reminder opens when it fires (a URL or an
	// app shortcut target).
	Destination string    `json:"destination"`
	TriggerAt   time.Time `json:"trigger_at"`
	// Recurrence is an optional repeat rule ("daily", "weekly", ...).
	// Empty means one-shot.
	Recurrence string `json:"recurrence,omitempty"`
}

// Record is a uniquely identified bookmark or reminder. Exactly one of
// Bookmark/Reminder is set, matching Kind.
type Record struct {
	// ID is the canonical unique identifier.
	// Generated once at creation, never reused, never mutated.
	ID string `json:"id"`

	Kind Kind `json:"kind"`

	Bookmark *BookmarkPayload `json:"bookmark,omitempty"`
	Reminder *ReminderPayload `json:"reminder,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// DeletedAt marks a bookmark as trashed (soft-deleted).
	// Trashed records are excluded from listings and from sync.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// RetentionDays is the trash expiry window for this bookmark.
	RetentionDays int `json:"retention_days,omitempty"`

	// OwnerID is set on remote copies only; it identifies the user the
	// remote row belongs to and is stripped before a record enters the
	// local store.
	OwnerID string `json:"owner_id,omitempty"`
}

// NewBookmark creates a local bookmark record with a fresh identity.
func NewBookmark(url, title, tag string) *Record {
	now := time.Now()
	return &Record{
		ID:            uuid.NewString(),
		Kind:          KindBookmark,
		Bookmark:      &BookmarkPayload{URL: url, Title: title, Tag: tag},
		CreatedAt:     now,
		UpdatedAt:     now,
		RetentionDays: DefaultRetentionDays,
	}
}

// NewReminder creates a local reminder record with a fresh identity.
func NewReminder(destination string, triggerAt time.Time, recurrence string) *Record {
	now := time.Now()
	return &Record{
		ID:        uuid.NewString(),
		Kind:      KindReminder,
		Reminder:  &ReminderPayload{Destination: destination, TriggerAt: triggerAt, Recurrence: recurrence},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Trashed reports whether the record is soft-deleted.
func (r *Record) Trashed() bool {
	return r.DeletedAt != nil
}

// TrashExpired reports whether a trashed record has outlived its retention
// window and may be permanently purged. Records not in trash never expire.
func (r *Record) TrashExpired(now time.Time) bool {
	if r.DeletedAt == nil {
		return false
	}
	days := r.RetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return now.Sub(*r.DeletedAt) >= time.Duration(days)*24*time.Hour
}
