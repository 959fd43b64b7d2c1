package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/store/local"
	"github.com/MrSnakeDoc/stash/internal/store/remote"
	"github.com/MrSnakeDoc/stash/internal/syncer"
)

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	OwnerID            string           // authenticated user identity (resolved by the auth layer)
	Store              *local.Store     // on-device record store
	Ledger             *local.Ledger    // sync status ledger
	Remote             *remote.Client   // remote record store client
	Reconciler         *syncer.Reconciler
	RedisClient        *redis.Client // raw client, used by readiness checks
	TrashRetentionDays int           // retention window applied on soft-delete
	ImportTrigger      chan struct{} // channel to trigger manual seed import (nil if disabled)
}
