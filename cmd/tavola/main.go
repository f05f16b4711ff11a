package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tavolahq/tavola/internal/config"
	"github.com/tavolahq/tavola/internal/events"
	"github.com/tavolahq/tavola/internal/placement"
	"github.com/tavolahq/tavola/internal/server"
	"github.com/tavolahq/tavola/internal/store/postgres"
	redisstore "github.com/tavolahq/tavola/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("TAVOLA_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("TAVOLA_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// `tavola migrate-down [steps]` rolls back migrations and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil {
				return fmt.Errorf("migrate-down: bad step count %q: %w", os.Args[2], err)
			}
		}
		log.Info().Int("steps", steps).Msg("rolling back migrations")
		return postgres.MigrateDown(cfg.Database.URL(), os.Getenv("TAVOLA_MIGRATIONS_PATH"), steps)
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Apply pending schema migrations.
	if err := postgres.MigrateUp(cfg.Database.URL(), os.Getenv("TAVOLA_MIGRATIONS_PATH")); err != nil {
		return err
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	broker, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StreamMaxLen)
	if err != nil {
		return err
	}
	defer broker.Close()

	// Event pipeline: emitter -> dispatcher -> broker.
	dispatcher := events.NewDispatcher(broker, events.DispatcherConfig{
		QueueSize:      cfg.Events.QueueSize,
		PublishTimeout: cfg.Events.PublishTimeout,
		RetryInitial:   cfg.Events.RetryInitial,
		RetryMax:       cfg.Events.RetryMax,
		MaxAttempts:    cfg.Events.MaxAttempts,
	})
	dispatcher.Start()
	emitter := events.NewEmitter(dispatcher)

	// Card placement engine.
	engine := placement.NewEngine(store)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, store, engine, emitter, broker)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Drain HTTP first so no new mutations enqueue events, then drain the
	// event queue so committed mutations still reach the broker.
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	if drainErr := dispatcher.Shutdown(shutdownCtx); drainErr != nil {
		log.Warn().Err(drainErr).Msg("event queue not fully drained")
	}

	log.Info().Msg("stopped")
	return nil
}
