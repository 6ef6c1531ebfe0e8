package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/auth"
	platformconfig "github.com/example/discussion-platform/internal/platform/config"
	"github.com/example/discussion-platform/internal/platform/db"
	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/internal/platform/httpserver"
	"github.com/example/discussion-platform/internal/platform/logging"
	"github.com/example/discussion-platform/internal/platform/natsconn"
	"github.com/example/discussion-platform/internal/platform/run"
	"github.com/example/discussion-platform/services/discussion/internal/config"
	"github.com/example/discussion-platform/services/discussion/internal/grpcapi"
	"github.com/example/discussion-platform/services/discussion/internal/handlers"
	"github.com/example/discussion-platform/services/discussion/internal/lifecycle"
	"github.com/example/discussion-platform/services/discussion/internal/lock"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
	"github.com/example/discussion-platform/services/discussion/internal/service"
	"github.com/example/discussion-platform/services/discussion/internal/store"
)

func main() {
	run.Exit(serve())
}

// serve wires and runs the service, returning the process exit code.
func serve() int {
	if err := platformconfig.LoadDotEnv(); err != nil {
		panic(err)
	}
	app, err := platformconfig.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.ForService(app.ServiceName, app.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", zap.Error(err))
		return 1
	}

	st, closeStore := initStore(log, cfg)
	if closeStore != nil {
		defer closeStore()
	}

	locker, closeLocker := initLocker(log, cfg)
	if closeLocker != nil {
		defer closeLocker()
	}

	publisher, closeEvents := initEvents(log, cfg)
	if closeEvents != nil {
		defer closeEvents()
	}

	lc := lifecycle.New(policy.New(cfg.Policy), lifecycle.NewBodyValidator(cfg.MaxBodyLength), nil)
	svc := service.New(service.Options{
		Store:     st,
		Lifecycle: lc,
		Locker:    locker,
		Events:    publisher,
		Logger:    log,
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return svc.Ping(ctx)
	}})
	handlers.New(svc, log).Register(r, auth.JWTVerifier{Secret: cfg.JWTSecret})

	srv := httpserver.New(httpserver.Options{Addr: app.HTTP.Addr, ServiceName: app.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		return 1
	}
	hc := grpcapi.NewHealth(svc, log)
	grpcSrv := grpcapi.NewServer(hc)

	runner := run.New(log)
	code := runner.WithSignals(
		func(ctx context.Context) error {
			go hc.Watch(ctx, 10*time.Second)
			return srv.Start(log)
		},
		func(ctx context.Context) error {
			log.Info("grpc server starting", zap.String("addr", cfg.GRPCAddr))
			return grpcSrv.Serve(lis)
		},
	)

	runner.Graceful(
		srv.Shutdown,
		func(ctx context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
				grpcSrv.Stop()
			}
			return nil
		},
	)

	log.Info("exit", zap.Int("code", code))
	return code
}

// initStore selects the Store backend. In production it requires a working
// Postgres connection and terminates the process otherwise.
func initStore(log *zap.Logger, cfg config.Config) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store (development only)")
		return store.NewMemoryStore(), nil
	}

	if cfg.RunMigrations {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			fatalOrFallback(log, cfg, "migrations failed", err)
			return store.NewMemoryStore(), nil
		}
	}

	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		fatalOrFallback(log, cfg, "postgres unavailable", err)
		return store.NewMemoryStore(), nil
	}

	log.Info("discussion store: postgres")
	return store.NewPostgresStore(pool), pool.Close
}

func fatalOrFallback(log *zap.Logger, cfg config.Config, msg string, err error) {
	if cfg.Production {
		log.Error(msg+" in production", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Warn(msg+", falling back to in-memory store", zap.Error(err))
}

// initLocker uses Redis when REDIS_URL is set so replicas share comment locks.
func initLocker(log *zap.Logger, cfg config.Config) (lock.Locker, func()) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, using in-process locks")
		return lock.NewLocal(cfg.LockWait), nil
	}
	rl := lock.NewRedis(cfg.RedisURL, cfg.LockTTL, cfg.LockWait, log)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rl.Ping(ctx); err != nil {
		_ = rl.Close()
		if cfg.Production {
			log.Error("redis is required when REDIS_URL is set in production", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("redis unavailable, using in-process locks", zap.Error(err))
		return lock.NewLocal(cfg.LockWait), nil
	}
	log.Info("comment locks: redis")
	return rl, func() { _ = rl.Close() }
}

// initEvents connects the JetStream publisher. Events are optional: without
// NATS the service keeps working and publishes nothing.
func initEvents(log *zap.Logger, cfg config.Config) (service.Publisher, func()) {
	if cfg.NATSURL == "" {
		log.Warn("NATS_URL not set, discussion events will not be published")
		return nil, nil
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Logger: log})
	if err != nil {
		log.Warn("nats connect failed, events disabled", zap.Error(err))
		return nil, nil
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		log.Warn("jetstream unavailable, events disabled", zap.Error(err))
		return nil, nil
	}
	events.EnsureStream(js, log)
	return events.New(js, log), func() {
		_ = nc.Drain()
	}
}
