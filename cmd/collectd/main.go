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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"waste-collection-backend/config"
	"waste-collection-backend/internal/api"
	"waste-collection-backend/internal/db"
	"waste-collection-backend/internal/notification"
	"waste-collection-backend/internal/reminder"
	"waste-collection-backend/internal/schedule"
	"waste-collection-backend/internal/store"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		logger = logger.Level(level)
	}
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatal().Msg("VAPID keys must be configured; generate them and add them to the config file")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Reminder.Timezone).Msg("invalid reminder timezone")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	appStore := store.NewGormStore(gormDB)
	logger.Info().Msg("data store initialized")

	// Notification fan-out pipeline.
	transport := notification.NewWebPushTransport(&webpushOptions, appStore, logger)
	dispatcher := notification.NewDispatcher(appStore, transport, logger)

	// Schedule orchestration.
	scheduleSvc := schedule.NewService(appStore, appStore, dispatcher, loc, logger)

	// Daily reminder triggers.
	runner := cron.New(cron.WithLocation(loc))
	job := reminder.NewJob(scheduleSvc, cfg.Reminder.Budget, logger)
	if err := reminder.Register(runner, cfg.Reminder.Times, job); err != nil {
		logger.Fatal().Err(err).Msg("failed to register reminder triggers")
	}
	runner.Start()
	logger.Info().Strs("times", cfg.Reminder.Times).Str("timezone", cfg.Reminder.Timezone).Msg("daily reminder triggers registered")

	// Initialize router
	router := api.NewRouter(&cfg.Server, scheduleSvc, appStore, &webpushOptions, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	// Let an in-flight reminder run finish before closing.
	<-runner.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}
