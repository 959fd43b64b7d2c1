package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/stash/internal/domain"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/sources/seedfile"
)

// ImportStore is the slice of the local store the importer needs.
type ImportStore interface {
	List(ctx context.Context, kind domain.Kind) ([]*domain.Record, error)
	ListTrash(ctx context.Context) ([]*domain.Record, error)
	Add(ctx context.Context, rec *domain.Record) error
}

// SeedImporter loads bookmarks from a seed file into the local store.
// Import is insert-if-absent at the local boundary: records whose id is
// already known (active or trashed) are left alone, so re-importing never
// duplicates and never resurrects a trashed bookmark.
type SeedImporter struct {
	loader        *seedfile.Loader
	mapper        *seedfile.Mapper
	store         ImportStore
	logger        logger.Logger
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSeedImporter creates a seed importer.
func NewSeedImporter(seedFile string, store ImportStore, log logger.Logger, manualTrigger chan struct{}) *SeedImporter {
	return &SeedImporter{
		loader:        seedfile.NewLoader(seedFile),
		mapper:        seedfile.NewMapper(),
		store:         store,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start launches the manual-trigger listener and runs an initial import.
// The listener runs even when the initial import fails: a broken or
// missing seed file must stay recoverable through a manual trigger once
// the user has fixed it.
func (si *SeedImporter) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-si.manualTrigger:
				si.logger.Info("manual seed import triggered")
				if err := si.Import(ctx); err != nil {
					si.logger.Error("failed to import seed file",
						logger.Error(err))
				}
			case <-si.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := si.Import(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}
	return nil
}

// Stop stops the importer.
func (si *SeedImporter) Stop() {
	close(si.stopCh)
}

// Import loads the seed file and adds records not yet known locally.
func (si *SeedImporter) Import(ctx context.Context) error {
	config, err := si.loader.Load()
	if err != nil {
		return err
	}

	seeded, err := si.mapper.Map(config)
	if err != nil {
		return err
	}

	known, err := si.knownIDs(ctx)
	if err != nil {
		return err
	}

	added := 0
	for _, rec := range seeded {
		if known[rec.ID] {
			continue
		}
		if err := si.store.Add(ctx, rec); err != nil {
			si.logger.Warn("failed to add seeded bookmark",
				logger.String("record_id", rec.ID),
				logger.Error(err))
			continue
		}
		added++
	}

	si.logger.Info("seed import completed",
		logger.Int("seeded", len(seeded)),
		logger.Int("added", added))

	return nil
}

// knownIDs collects ids of every local bookmark, active or trashed.
func (si *SeedImporter) knownIDs(ctx context.Context) (map[string]bool, error) {
	known := make(map[string]bool)

	active, err := si.store.List(ctx, domain.KindBookmark)
	if err != nil {
		return nil, err
	}
	for _, rec := range active {
		known[rec.ID] = true
	}

	trash, err := si.store.ListTrash(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range trash {
		known[rec.ID] = true
	}

	return known, nil
}
