package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/logger"
)

// Store is the on-device record store. It is the authoritative copy of
// the user's bookmarks and reminders; every mutation is written through
// to SQLite immediately so a subsequent List reflects it.
type Store struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewStore creates a local store on top of an opened database.
func NewStore(db *gorm.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// recordRow is the persisted shape of a domain.Record. Kind-specific
// fields travel as a JSON payload column so both variants share one table.
type recordRow struct {
	ID            string `gorm:"primaryKey"`
	Kind          string `gorm:"index"`
	Payload       []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time `gorm:"index"`
	RetentionDays int
}

func (recordRow) TableName() string { return "records" }

func toRow(rec *domain.Record) (*recordRow, error) {
	var payload any
	switch rec.Kind {
	case domain.KindBookmark:
		payload = rec.Bookmark
	case domain.KindReminder:
		payload = rec.Reminder
	default:
		return nil, fmt.Errorf("unknown record kind %q", rec.Kind)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record payload: %w", err)
	}

	return &recordRow{
		ID:            rec.ID,
		Kind:          string(rec.Kind),
		Payload:       data,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		DeletedAt:     rec.DeletedAt,
		RetentionDays: rec.RetentionDays,
	}, nil
}

func fromRow(row *recordRow) (*domain.Record, error) {
	rec := &domain.Record{
		ID:            row.ID,
		Kind:          domain.Kind(row.Kind),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		DeletedAt:     row.DeletedAt,
		RetentionDays: row.RetentionDays,
	}

	switch rec.Kind {
	case domain.KindBookmark:
		var p domain.BookmarkPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark payload: %w", err)
		}
		rec.Bookmark = &p
	case domain.KindReminder:
		var p domain.ReminderPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminder payload: %w", err)
		}
		rec.Reminder = &p
	default:
		return nil, fmt.Errorf("unknown record kind %q in store", row.Kind)
	}

	return rec, nil
}

// List returns all active (non-trashed) records of the given kind,
// ordered by creation time. Trashed records never appear here, which is
// what keeps them out of sync.
func (s *Store) List(ctx context.Context, kind domain.Kind) ([]*domain.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).
		Where("kind = ? AND deleted_at IS NULL", string(kind)).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}
	return s.rowsToRecords(rows)
}

// ListTrash returns all soft-deleted records, newest deletion first.
func (s *Store) ListTrash(ctx context.Context) ([]*domain.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return s.rowsToRecords(rows)
}

// Get retrieves a record by id, trashed or not.
func (s *Store) Get(ctx context.Context, id string) (*domain.Record, error) {
	var row recordRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return fromRow(&row)
}

// Add inserts a new record. A duplicate id is an error so that sync
// counts stay honest.
func (s *Store) Add(ctx context.Context, rec *domain.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("add record %s: %w", rec.ID, err)
	}
	return nil
}

// Update replaces the payload of an existing record and bumps UpdatedAt.
func (s *Store) Update(ctx context.Context, rec *domain.Record) error {
	rec.UpdatedAt = time.Now()
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&recordRow{}).Where("id = ?", rec.ID).
		Updates(map[string]any{
			"payload":        row.Payload,
			"updated_at":     row.UpdatedAt,
			"retention_days": row.RetentionDays,
		})
	if res.Error != nil {
		return fmt.Errorf("update record %s: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record not found: %s", rec.ID)
	}
	return nil
}

// SoftDelete moves a bookmark to trash. Unknown ids are a no-op success.
func (s *Store) SoftDelete(ctx context.Context, id string, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = domain.DefaultRetentionDays
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&recordRow{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at":     &now,
			"updated_at":     now,
			"retention_days": retentionDays,
		}).Error; err != nil {
		return fmt.Errorf("trash record %s: %w", id, err)
	}
	return nil
}

// Restore clears the trash marker. Unknown ids are a no-op success.
func (s *Store) Restore(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Model(&recordRow{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{
			"deleted_at": nil,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("restore record %s: %w", id, err)
	}
	return nil
}

// Purge permanently removes a record. Unknown ids are a no-op success.
func (s *Store) Purge(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).
		Delete(&recordRow{}).Error; err != nil {
		return fmt.Errorf("purge record %s: %w", id, err)
	}
	return nil
}

// PurgeExpired permanently removes trashed records whose retention window
// has elapsed. Returns the ids that were purged.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) ([]string, error) {
	trash, err := s.ListTrash(ctx)
	if err != nil {
		return nil, err
	}

	var purged []string
	for _, rec := range trash {
		if !rec.TrashExpired(now) {
			continue
		}
		if err := s.Purge(ctx, rec.ID); err != nil {
			return purged, err
		}
		purged = append(purged, rec.ID)
	}
	return purged, nil
}

// rowsToRecords decodes rows, skipping any that fail. A skipped row is
// logged loudly: it stays invisible to sync, so every run re-downloads
// its remote copy and hits the duplicate-id error until the row is fixed.
func (s *Store) rowsToRecords(rows []recordRow) ([]*domain.Record, error) {
	records := make([]*domain.Record, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			s.logger.Error("skipping undecodable record row",
				logger.String("record_id", rows[i].ID),
				logger.String("kind", rows[i].Kind),
				logger.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
