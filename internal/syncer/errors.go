package syncer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyncInFlight is returned when a sync for a kind is requested while
// another run for the same kind is still outstanding. The caller simply
// retries later; there is no queueing.
var ErrSyncInFlight = errors.New("sync already in flight")

// FetchError is a failure to read the full remote record set. It is fatal
// for the run: no mutation has happened when it is returned.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("remote fetch failed: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// StorageError is a failure to read or write the local store. Fatal,
// surfaced the same way as FetchError.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("local storage failed: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// PartialError reports records that failed within an otherwise successful
// leg. It reduces the run's counts but does not flip the run to failure:
// the union algorithm retries exactly the failed ids on the next run.
type PartialError struct {
	Leg       string // "upload" or "download"
	FailedIDs []string
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s leg left %d records behind: %s",
		e.Leg, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}
