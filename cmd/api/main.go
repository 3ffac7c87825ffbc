package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/supplychain-backend/api/routes"
	"github.com/angelmondragon/supplychain-backend/internal/agreements"
	"github.com/angelmondragon/supplychain-backend/internal/auth"
	"github.com/angelmondragon/supplychain-backend/internal/catalog"
	"github.com/angelmondragon/supplychain-backend/internal/cron"
	"github.com/angelmondragon/supplychain-backend/internal/invoices"
	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/internal/rides"
	"github.com/angelmondragon/supplychain-backend/internal/seed"
	"github.com/angelmondragon/supplychain-backend/internal/snapshots"
	"github.com/angelmondragon/supplychain-backend/internal/tickets"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/auth/session"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/idgen"
	"github.com/angelmondragon/supplychain-backend/pkg/instance"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	"github.com/angelmondragon/supplychain-backend/pkg/migrate"
	"github.com/angelmondragon/supplychain-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	locker, err := newLocker(cfg.Locks, redisClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.NewWorkflowMetrics(registry)
	cronMetrics := metrics.NewCronJobMetrics(registry)

	app, err := buildServices(cfg, logg, dbClient, locker, sessionManager, workflowMetrics)
	if err != nil {
		return err
	}

	sink, err := newSnapshotSink(cfg.Snapshot, redisClient)
	if err != nil {
		return err
	}
	snapshotSvc, err := snapshots.NewService(dbClient, sink, logg)
	if err != nil {
		return fmt.Errorf("snapshot service: %w", err)
	}
	if err := bootstrapState(ctx, cfg, logg, dbClient, app.userRepo, snapshotSvc); err != nil {
		return err
	}

	cronCtx, cancelCron := context.WithCancel(ctx)
	defer cancelCron()
	cronDone := make(chan struct{})
	if cfg.Cron.Enabled {
		cronSvc, err := buildCron(cfg, logg, redisClient, cronMetrics, snapshotSvc, app)
		if err != nil {
			return err
		}
		go func() {
			defer close(cronDone)
			_ = cronSvc.Run(cronCtx)
		}()
	} else {
		close(cronDone)
	}

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"driver":   dbClient.Driver(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			RateLimiter:   redisClient,
			Idempotency:   redisClient,
			Gatherer:      registry,
			Auth:          app.auth,
			Register:      app.register,
			Users:         app.users,
			Agreements:    app.agreements,
			Catalog:       app.catalog,
			Orders:        app.orders,
			Rides:         app.rides,
			Invoices:      app.invoices,
			Notifications: app.notifications,
			Tickets:       app.tickets,
			Snapshots:     snapshotSvc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "http shutdown", err)
	}
	cancelCron()
	<-cronDone

	if snapshotSvc.Enabled() {
		if err := snapshotSvc.Flush(shutdownCtx); err != nil {
			logg.Error(logCtx, "final snapshot flush failed", err)
		} else {
			logg.Info(logCtx, "final snapshot written")
		}
	}
	return nil
}

type services struct {
	userRepo      users.Repository
	auth          auth.Service
	register      auth.RegisterService
	users         users.Service
	agreements    agreements.Service
	catalog       catalog.Service
	notifications notifications.Service
	invoices      invoices.Service
	dispatcher    *rides.Dispatcher
	orders        orders.Service
	rides         rides.Service
	tickets       tickets.Service
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, locker keylock.Locker, sessions *session.Manager, wm *metrics.WorkflowMetrics) (*services, error) {
	conn := dbClient.DB()
	out := &services{userRepo: users.NewRepository(conn)}
	numbers := idgen.Generator{}
	var err error

	if out.auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       out.userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
	}); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	if out.register, err = auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		UserRepo:       out.userRepo,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}
	if out.users, err = users.NewService(out.userRepo); err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	if out.agreements, err = agreements.NewService(out.userRepo, dbClient, locker, logg); err != nil {
		return nil, fmt.Errorf("agreement service: %w", err)
	}
	if out.catalog, err = catalog.NewService(out.users); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if out.notifications, err = notifications.NewService(notifications.NewRepository(conn), wm); err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}
	if out.invoices, err = invoices.NewService(invoices.ServiceParams{
		Repo:     invoices.NewRepository(conn),
		Notifier: out.notifications,
		Numbers:  numbers,
		Metrics:  wm,
		Logger:   logg,
	}); err != nil {
		return nil, fmt.Errorf("invoice service: %w", err)
	}
	rideRepo := rides.NewRepository(conn)
	if out.dispatcher, err = rides.NewDispatcher(rides.DispatcherParams{
		Repo:     rideRepo,
		Users:    out.userRepo,
		Notifier: out.notifications,
		Metrics:  wm,
		Logger:   logg,
	}); err != nil {
		return nil, fmt.Errorf("ride dispatcher: %w", err)
	}
	if out.orders, err = orders.NewService(orders.ServiceParams{
		Repo:       orders.NewRepository(conn),
		Users:      out.userRepo,
		Catalog:    out.catalog,
		Notifier:   out.notifications,
		Invoices:   out.invoices,
		Dispatcher: out.dispatcher,
		Tx:         dbClient,
		Locker:     locker,
		Numbers:    numbers,
		Metrics:    wm,
		Logger:     logg,
	}); err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	if out.rides, err = rides.NewService(rides.ServiceParams{
		Repo:       rideRepo,
		Users:      out.userRepo,
		Dispatcher: out.dispatcher,
		Orders:     out.orders,
		Tx:         dbClient,
		Locker:     locker,
		Metrics:    wm,
		Logger:     logg,
	}); err != nil {
		return nil, fmt.Errorf("ride service: %w", err)
	}
	if out.tickets, err = tickets.NewService(tickets.ServiceParams{
		Repo:   tickets.NewRepository(conn),
		Users:  out.userRepo,
		Locker: locker,
		Logger: logg,
	}); err != nil {
		return nil, fmt.Errorf("ticket service: %w", err)
	}
	return out, nil
}

func newLocker(cfg config.LocksConfig, client *redis.Client) (keylock.Locker, error) {
	if cfg.Backend == config.LockBackendRedis {
		locker, err := keylock.NewRedis(client, cfg.TTL, cfg.Poll)
		if err != nil {
			return nil, fmt.Errorf("redis key locker: %w", err)
		}
		return locker, nil
	}
	return keylock.NewLocal(), nil
}

func newSnapshotSink(cfg config.SnapshotConfig, client *redis.Client) (snapshots.Sink, error) {
	switch cfg.Backend {
	case config.SnapshotBackendFile:
		return snapshots.FileSink{Path: cfg.Path}, nil
	case config.SnapshotBackendRedis:
		sink, err := snapshots.NewRedisSink(client, cfg.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("redis snapshot sink: %w", err)
		}
		return sink, nil
	}
	return nil, nil
}

// bootstrapState restores the last snapshot, or seeds the demo accounts
// when there is none and seeding is enabled.
func bootstrapState(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, userRepo users.Repository, snaps *snapshots.Service) error {
	restored, err := snaps.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if restored || !cfg.FeatureFlags.SeedDemo {
		return nil
	}
	if _, err := seed.Run(ctx, seed.Params{
		DB:       dbClient,
		Users:    userRepo,
		Password: cfg.Password,
		Logger:   logg,
	}); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	return nil
}

func buildCron(cfg *config.Config, logg *logger.Logger, client *redis.Client, cm *metrics.CronJobMetrics, snaps *snapshots.Service, app *services) (*cron.Service, error) {
	registry := cron.NewRegistry()
	if job := cron.NewSnapshotJob(snaps); job != nil {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	rideJob, err := cron.NewStaleRideJob(app.dispatcher, cfg.Cron.StaleRideAfter, logg)
	if err != nil {
		return nil, fmt.Errorf("stale ride job: %w", err)
	}
	orderJob, err := cron.NewStaleOrderJob(app.orders, cfg.Cron.StaleOrdersAfter, logg)
	if err != nil {
		return nil, fmt.Errorf("stale order job: %w", err)
	}
	for _, job := range []cron.Job{rideJob, orderJob} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Locks.Backend == config.LockBackendRedis {
		redisLock, err := cron.NewRedisLock(client, client.LockKey("cron"), cfg.Cron.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("cron lock: %w", err)
		}
		lock = redisLock
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cm,
		Interval: cfg.Cron.Interval,
	})
}
