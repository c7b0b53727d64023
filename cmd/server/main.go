package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/geoparty/internal/config"
	"github.com/playperu/geoparty/internal/database"
	"github.com/playperu/geoparty/internal/events"
	"github.com/playperu/geoparty/internal/geodata"
	"github.com/playperu/geoparty/internal/handler/health"
	"github.com/playperu/geoparty/internal/handler/live"
	"github.com/playperu/geoparty/internal/kv"
	"github.com/playperu/geoparty/internal/migrations"
	"github.com/playperu/geoparty/internal/profile"
	"github.com/playperu/geoparty/internal/server"
	"github.com/playperu/geoparty/internal/session"
	"github.com/playperu/geoparty/internal/tracing"
)

const limitsInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Tracing ---
	shutdownTracing, err := tracing.Setup(ctx, "geoparty", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db.DB, logger); err != nil {
		return err
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Redis ---
	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	store := kv.NewRedis(rdb, logger, kv.RedisOptions{
		Prefix:     cfg.Session.KeyPrefix,
		TTL:        cfg.Session.TTL,
		MaxClients: cfg.Store.MaxClients,
		MaxKeys:    cfg.Store.MaxKeys,
		TrimTo:     cfg.Store.TrimTo,
	})

	checks := map[string]health.Checker{
		"sqlite": db,
		"redis":  store,
	}

	// --- Events ---
	broker := events.NewBroker()
	var publisher events.Publisher = broker
	if cfg.NATSURL != "" {
		bridge, err := events.Dial(cfg.NATSURL, broker, logger)
		if err != nil {
			return err
		}
		defer bridge.Close()
		publisher = bridge
		checks["nats"] = bridge
		logger.Info("connected to nats", "url", cfg.NATSURL)
	}

	// --- Domain ---
	clock := clockwork.NewRealClock()
	profiles := profile.NewStore(db.DB)
	reporter := profile.NewReporter(profiles, clock, cfg.ProfileFlushInterval, logger)

	extents := geodata.Default()
	sessions := session.New(store, extents,
		session.WithConfig(session.Config{
			MaxPlayers: cfg.MaxPlayers,
			Locking:    cfg.Session.Locking,
			LockTTL:    cfg.Session.LockTTL,
		}),
		session.WithClock(clock),
		session.WithLogger(logger),
		session.WithPublisher(publisher),
		session.WithFinisher(profiles),
	)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Sessions:       sessions,
		Broker:         broker,
		Extents:        extents,
		Profiles:       profiles,
		Reporter:       reporter,
		PublicURL:      cfg.PublicURL,
		CORSOrigins:    cfg.CORSOrigins,
		RoundRateLimit: cfg.RoundRateLimit,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/ws", live.NewHandler(logger, broker, sessions, cfg.CORSOrigins).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		return reporter.Run(gctx)
	})

	g.Go(func() error {
		return store.GuardLimits(gctx, limitsInterval)
	})

	return g.Wait()
}

func openRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opt.MaxRetries = cfg.MaxRetries

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
