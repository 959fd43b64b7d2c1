package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MrSnakeDoc/stash/internal/config"
	"github.com/MrSnakeDoc/stash/internal/httpserver"
	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/logger"
	"github.com/MrSnakeDoc/stash/internal/redis"
	"github.com/MrSnakeDoc/stash/internal/scheduler"
	"github.com/MrSnakeDoc/stash/internal/store/local"
	"github.com/MrSnakeDoc/stash/internal/store/remote"
	"github.com/MrSnakeDoc/stash/internal/syncer"
	"github.com/MrSnakeDoc/stash/internal/utils"
	"github.com/MrSnakeDoc/stash/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *gorm.DB
	schedule    *scheduler.Service
	syncRunner  *scheduler.SyncRunner
	trash       *scheduler.TrashCollector
	importer    *scheduler.SeedImporter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Open the local SQLite database
	db, err := local.NewDB(cfg.DBPath)
	if err != nil {
		loggerClient.Errorf("Failed to open local database: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("local database initialized",
		logger.String("path", cfg.DBPath))

	store := local.NewStore(db, loggerClient)
	ledger := local.NewLedger(db)
	remoteClient := remote.NewClient(redisClient)

	reconciler := syncer.NewReconciler(store, remoteClient, ledger, loggerClient)
	policy := syncer.NewTriggerPolicy(cfg.SyncInterval)

	schedule := scheduler.NewService()
	syncRunner := scheduler.NewSyncRunner(reconciler, ledger, policy, cfg.OwnerID, loggerClient)
	trash := scheduler.NewTrashCollector(store, loggerClient)

	// Initialize seed importer (if a seed file is configured)
	var importer *scheduler.SeedImporter
	var importTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing importer",
			logger.String("file", cfg.SeedFile))
		importTrigger = make(chan struct{}, 1)
		importer = scheduler.NewSeedImporter(cfg.SeedFile, store, loggerClient, importTrigger)
	} else {
		loggerClient.Info("seed file not configured, seed import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		OwnerID:            cfg.OwnerID,
		Store:              store,
		Ledger:             ledger,
		Remote:             remoteClient,
		Reconciler:         reconciler,
		RedisClient:        redisClient,
		TrashRetentionDays: cfg.TrashRetentionDays,
		ImportTrigger:      importTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		schedule:    schedule,
		syncRunner:  syncRunner,
		trash:       trash,
		importer:    importer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Stash v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Stash %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start seed importer (if enabled)
	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			a.logger.Warn("initial seed import failed, continuing without it",
				logger.Error(err))
		}
	}

	// Register periodic jobs, then start the scheduler
	if err := a.syncRunner.Register(ctx, a.schedule, a.cfg.SyncCheckInterval); err != nil {
		return fmt.Errorf("failed to register sync runner: %w", err)
	}
	a.logger.Info("sync runner registered",
		logger.Duration("check_interval", a.cfg.SyncCheckInterval),
		logger.Duration("sync_interval", a.cfg.SyncInterval))

	if err := a.trash.Register(ctx, a.schedule, a.cfg.GCInterval); err != nil {
		return fmt.Errorf("failed to register trash collector: %w", err)
	}
	a.logger.Info("trash collector registered",
		logger.Duration("interval", a.cfg.GCInterval))

	a.schedule.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop periodic jobs (waits for running jobs to finish)
	a.schedule.Stop()

	// Stop seed importer
	if a.importer != nil {
		a.importer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			utils.Close(sqlDB, "sqlite", a.logger)
		}
	}

	a.logger.Info("✅ Stash stopped cleanly")
	return nil
}
