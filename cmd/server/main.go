// Package main is the entry point for the attendance hub server.
//
// The process owns a single in-memory snapshot of the roster and the
// attendance index, loaded from PostgreSQL at boot. Commands mutate the
// snapshot first and persist deltas after; queries read the snapshot
// and lean on Redis for cached weekly summaries. Everything is wired
// here and torn down in reverse order on shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studioroll/attendance-hub/config"
	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/internal/application/command"
	"github.com/studioroll/attendance-hub/internal/application/eventhandler"
	"github.com/studioroll/attendance-hub/internal/application/query"
	"github.com/studioroll/attendance-hub/internal/infrastructure/export"
	"github.com/studioroll/attendance-hub/internal/infrastructure/messaging"
	"github.com/studioroll/attendance-hub/internal/infrastructure/persistence/postgres"
	"github.com/studioroll/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/studioroll/attendance-hub/internal/infrastructure/scheduler"
	"github.com/studioroll/attendance-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/studioroll/attendance-hub/internal/interface/http"
	"github.com/studioroll/attendance-hub/pkg/logger"
	"github.com/studioroll/attendance-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting attendance hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// Postgres. The database may still be coming up when we are, so the
	// initial dial goes through the boot retrier.
	log.Info("connecting to database")
	var dbConn *postgres.Connection
	dialErr := retry.BootDialRetrier().Do(ctx, func(ctx context.Context) error {
		var err error
		dbConn, err = dialPostgres(ctx, cfg.Database)
		return err
	})
	if dialErr != nil {
		return fmt.Errorf("failed to connect to database: %w", dialErr)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if cfg.Database.RunMigrations {
		log.Info("running database migrations")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	studentRepo := postgres.NewStudentRepository(dbConn)
	dayRepo := postgres.NewAttendanceRepository(dbConn)

	// The snapshot is the authority for every command and query from
	// here on; the store only sees write deltas.
	log.Info("loading state snapshot")
	state, err := application.Load(ctx, studentRepo, dayRepo)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	if err := eventhandler.NewAuditHandler(log).Subscribe(bus); err != nil {
		return fmt.Errorf("failed to subscribe audit handler: %w", err)
	}

	// Redis is optional. Without it queries recompute summaries on
	// every request, which is fine for a single-studio roster.
	var summaryCache *redis.SummaryCache
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to redis")
		dialErr := retry.BootDialRetrier().Do(ctx, func(ctx context.Context) error {
			var err error
			redisCache, err = redis.NewCache(redisConfig(cfg.Redis))
			return err
		})
		if dialErr != nil {
			log.Warn("redis unavailable, summary caching disabled", logger.Err(dialErr))
		} else {
			defer redisCache.Close()
			summaryCache = redis.NewSummaryCache(redisCache, cfg.Redis.SummaryTTL, log)
			if err := summaryCache.SubscribeInvalidation(bus); err != nil {
				return fmt.Errorf("failed to subscribe cache invalidation: %w", err)
			}
		}
	}

	cmdDeps := command.Deps{
		State:    state,
		Students: studentRepo,
		Days:     dayRepo,
		Bus:      bus,
		Logger:   log,
	}
	markCmd := command.NewMarkAttendanceHandler(cmdDeps)
	unmarkCmd := command.NewUnmarkAttendanceHandler(cmdDeps)
	enrollCmd := command.NewEnrollStudentHandler(cmdDeps)
	setActiveCmd := command.NewSetStudentActiveHandler(cmdDeps)
	removeCmd := command.NewRemoveStudentHandler(cmdDeps)
	adjustCmd := command.NewAdjustBalanceHandler(cmdDeps)
	reconcileCmd := command.NewReconcileHandler(cmdDeps)

	queryDeps := query.Deps{
		State:  state,
		Logger: log,
	}
	if summaryCache != nil {
		queryDeps.Summaries = summaryCache
	}
	summaryQuery := query.NewWeeklySummaryHandler(queryDeps)
	dayQuery := query.NewDayAttendanceHandler(queryDeps)
	rosterQuery := query.NewStudentRosterHandler(queryDeps)
	historyQuery := query.NewWeekHistoryHandler(queryDeps)

	exporter := export.NewWeeklyReportExporter(summaryQuery, historyQuery)

	// Background reconcile sweep, disabled when the interval is zero.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.ReconcileInterval > 0 {
		sched = scheduler.NewScheduler(log)
		job := jobs.NewReconcileJob(reconcileCmd, log, cfg.Scheduler.ReconcileTimeout)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Scheduler.ReconcileInterval)); err != nil {
			return fmt.Errorf("failed to register reconcile job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("reconcile job scheduled",
			logger.String("interval", cfg.Scheduler.ReconcileInterval.String()),
		)
	}

	readiness := map[string]func(ctx context.Context) error{
		"postgres": dbConn.Ping,
	}
	if summaryCache != nil {
		readiness["redis"] = redisCache.Ping
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.AdminUser = cfg.HTTP.AdminUser
	httpConfig.AdminPasswordHash = cfg.HTTP.AdminPasswordHash

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		MarkAttendance:   markCmd,
		UnmarkAttendance: unmarkCmd,
		EnrollStudent:    enrollCmd,
		SetStudentActive: setActiveCmd,
		RemoveStudent:    removeCmd,
		AdjustBalance:    adjustCmd,
		Reconcile:        reconcileCmd,
		WeeklySummary:    summaryQuery,
		DayAttendance:    dayQuery,
		StudentRoster:    rosterQuery,
		WeekHistory:      historyQuery,
		Exporter:         exporter,
		Logger:           log,
		ReadinessChecks:  readiness,
	})

	errCh := server.StartAsync()
	log.Info("attendance hub is running",
		logger.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("http server error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown",
		logger.String("timeout", cfg.App.ShutdownTimeout.String()),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop http server gracefully", logger.Err(err))
		shutdownErr = err
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", logger.Err(err))
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed")
	}
	return nil
}

// dialPostgres prefers the full URL when set and falls back to the
// individual DB_* settings.
func dialPostgres(ctx context.Context, cfg config.DatabaseConfig) (*postgres.Connection, error) {
	if cfg.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.URL)
	}
	pgCfg := postgres.DefaultConfig()
	pgCfg.Host = cfg.Host
	pgCfg.Port = cfg.Port
	pgCfg.Database = cfg.Name
	pgCfg.User = cfg.User
	pgCfg.Password = cfg.Password
	pgCfg.SSLMode = cfg.SSLMode
	pgCfg.MaxConns = int32(cfg.MaxConns)
	pgCfg.MinConns = int32(cfg.MinConns)
	return postgres.NewConnection(ctx, pgCfg)
}

func redisConfig(cfg config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Host
	rc.Port = cfg.Port
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	rc.PoolSize = cfg.PoolSize
	rc.MinIdleConns = cfg.MinIdleConns
	return rc
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
