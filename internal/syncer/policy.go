package syncer

import "time"

// DefaultSyncInterval is how long after a recorded sync the next
// automatic run becomes due.
const DefaultSyncInterval = 24 * time.Hour

// TriggerPolicy decides when an automatic sync should run. Manual syncs
// bypass it entirely. Pure function of elapsed time: no backoff, no
// jitter, no retry scheduling.
type TriggerPolicy struct {
	Interval time.Duration
}

// NewTriggerPolicy creates a policy, falling back to the default interval
// when none is given.
func NewTriggerPolicy(interval time.Duration) TriggerPolicy {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return TriggerPolicy{Interval: interval}
}

// IsSyncDue reports whether an automatic sync should run now. A zero
// lastSyncAt (never synced) is always due.
func (p TriggerPolicy) IsSyncDue(lastSyncAt, now time.Time) bool {
	if lastSyncAt.IsZero() {
		return true
	}
	return now.Sub(lastSyncAt) >= p.Interval
}
