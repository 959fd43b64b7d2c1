package remote

import (
	"github.com/MrSnakeDoc/stash/internal/domain"
)

const (
	// keyPrefix namespaces every key written by this client.
	keyPrefix = "stash:"
	// allSuffix is the suffix of the per-owner, per-kind id set.
	allSuffix = ":all"
)

// RecordKey returns the remote key for a single record row.
// Rows are keyed by (owner, kind, id) so id uniqueness holds per owner.
func RecordKey(ownerID string, kind domain.Kind, id string) string {
	return keyPrefix + ownerID + ":" + string(kind) + ":" + id
}

// AllRecordsKey returns the key of the set holding every record id an
// owner has for a kind.
func AllRecordsKey(ownerID string, kind domain.Kind) string {
	return keyPrefix + ownerID + ":" + string(kind) + allSuffix
}
