package main

import (
	"context"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"statusdeck/config"
	"statusdeck/internals/app"
	"statusdeck/internals/server"
	"statusdeck/pkg/db"
	"statusdeck/pkg/logger"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "env.yaml", "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Done closes on SIGINT/SIGTERM, everything below hangs off this ctx.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// Register a probe job for every active monitor before taking traffic.
	if err := container.Scheduler.Boot(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to boot scheduler")
	}

	// Control loop: reacts to monitor create/update/delete events.
	go func() {
		if err := container.Scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler control loop stopped")
		}
	}()

	// Event listener: fans monitor and incident updates out to websockets.
	go func() {
		if err := container.Listener.Run(ctx); err != nil {
			log.Error().Err(err).Msg("event listener stopped")
		}
	}()

	// Alert consumer (only when RabbitMQ is configured).
	app.StartConsumer(ctx, container)

	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(cfg.Port, router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Stop taking requests first, then drain the background machinery.
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
