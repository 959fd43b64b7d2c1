package seedfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/stash/internal/domain"
)

// Mapper converts seed file entries to domain records.
type Mapper struct{}

// NewMapper creates a seed mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map converts a SeedConfig to bookmark records. Entries without a URL
// are skipped. Ids are derived from the URL so importing the same file on
// two devices yields the same identities and the union sync conflates
// them correctly instead of duplicating.
func (m *Mapper) Map(config SeedConfig) ([]*domain.Record, error) {
	records := make([]*domain.Record, 0, len(config.Bookmarks))
	now := time.Now()

	for _, entry := range config.Bookmarks {
		if entry.URL == "" {
			continue
		}

		title := entry.Title
		if title == "" {
			title = entry.URL
		}

		records = append(records, &domain.Record{
			ID:   seedID(entry.URL),
			Kind: domain.KindBookmark,
			Bookmark: &domain.BookmarkPayload{
				URL:   entry.URL,
				Title: title,
				Tag:   entry.Tag,
			},
			CreatedAt:     now,
			UpdatedAt:     now,
			RetentionDays: domain.DefaultRetentionDays,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in seed file")
	}

	return records, nil
}

// seedID creates a stable id from a URL using a SHA-256 hash. The same
// URL always produces the same id, even if the title changes.
func seedID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
