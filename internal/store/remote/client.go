package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stash/internal/domain"
)

// UpsertResult reports the outcome of a batched insert-if-absent write.
type UpsertResult struct {
	Succeeded int
	FailedIDs []string
}

// Client is a thin accessor over the per-user remote record table.
// Writes go through SetNX, so an existing remote row is never overwritten:
// the remote copy of a record always keeps whatever fields it already has.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a remote store client.
func NewClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// FetchAll retrieves every record of the given kind for an owner.
// OwnerID is stripped from the returned records before they re-enter
// local space.
func (c *Client) FetchAll(ctx context.Context, kind domain.Kind, ownerID string) ([]*domain.Record, error) {
	ids, err := c.rdb.SMembers(ctx, AllRecordsKey(ownerID, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s record ids: %w", kind, err)
	}

	records := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		data, err := c.rdb.Get(ctx, RecordKey(ownerID, kind, id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Id in the set but row missing; skip rather than fail the fetch.
				continue
			}
			return nil, fmt.Errorf("failed to fetch record %s: %w", id, err)
		}

		var rec domain.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
		}
		rec.OwnerID = ""
		records = append(records, &rec)
	}

	return records, nil
}

// UpsertMany writes records with insert-if-absent semantics. A record
// whose key already exists is left untouched and counted as succeeded
// (the goal, presence on the remote, is already met). Per-record failures
// are collected into FailedIDs; they do not abort the rest of the batch.
func (c *Client) UpsertMany(ctx context.Context, kind domain.Kind, ownerID string, records []*domain.Record) (UpsertResult, error) {
	if len(records) == 0 {
		return UpsertResult{}, nil
	}

	pipe := c.rdb.Pipeline()
	setCmds := make([]*redis.BoolCmd, 0, len(records))
	addCmds := make([]*redis.IntCmd, 0, len(records))

	for _, rec := range records {
		remoteCopy := *rec
		remoteCopy.OwnerID = ownerID

		data, err := json.Marshal(&remoteCopy)
		if err != nil {
			return UpsertResult{}, fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
		}

		setCmds = append(setCmds, pipe.SetNX(ctx, RecordKey(ownerID, kind, rec.ID), data, 0))
		addCmds = append(addCmds, pipe.SAdd(ctx, AllRecordsKey(ownerID, kind), rec.ID))
	}

	// Exec returns the first command error; per-record outcomes are read
	// from the individual commands below.
	_, execErr := pipe.Exec(ctx)

	result := UpsertResult{}
	for i, rec := range records {
		if err := firstErr(setCmds[i].Err(), addCmds[i].Err()); err != nil {
			result.FailedIDs = append(result.FailedIDs, rec.ID)
			continue
		}
		result.Succeeded++
	}

	if execErr != nil && result.Succeeded == 0 {
		return result, fmt.Errorf("failed to upsert %s records: %w", kind, execErr)
	}
	return result, nil
}

// Count returns the number of records an owner has for a kind.
// Display purposes only.
func (c *Client) Count(ctx context.Context, kind domain.Kind, ownerID string) (int64, error) {
	n, err := c.rdb.SCard(ctx, AllRecordsKey(ownerID, kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", kind, err)
	}
	return n, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
