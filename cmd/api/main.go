package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/makersnearby/makersnearby-backend/api/routes"
	"github.com/makersnearby/makersnearby-backend/internal/imaging"
	"github.com/makersnearby/makersnearby-backend/internal/ingest"
	"github.com/makersnearby/makersnearby-backend/internal/notifications"
	"github.com/makersnearby/makersnearby-backend/internal/profiles"
	"github.com/makersnearby/makersnearby-backend/internal/publish"
	"github.com/makersnearby/makersnearby-backend/internal/wizard"
	"github.com/makersnearby/makersnearby-backend/pkg/config"
	"github.com/makersnearby/makersnearby-backend/pkg/db"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
	"github.com/makersnearby/makersnearby-backend/pkg/migrate"
	"github.com/makersnearby/makersnearby-backend/pkg/redis"
	"github.com/makersnearby/makersnearby-backend/pkg/storage/gcs"
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
		ServiceName: cfg.Service.Kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewNotifier(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	profilesRepo := profiles.NewRepository(dbClient.DB())
	profilesService, err := profiles.NewService(profilesRepo, gcsClient, redisClient, cfg.Gallery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create profiles service", err)
		os.Exit(1)
	}

	ingestService, err := ingest.NewService(
		imaging.NewNormalizer(cfg.Media),
		gcsClient,
		profilesService,
		notifier,
		cfg.Media,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	publishService, err := publish.NewService(profilesService, profilesRepo, redisClient, notifier, cfg.Gallery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create publish service", err)
		os.Exit(1)
	}

	wizardFactory, err := wizard.NewFactory(profilesService, publishService, cfg.Autosave, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wizard factory", err)
		os.Exit(1)
	}
	wizardSessions, err := wizard.NewSessions(wizardFactory)
	if err != nil {
		logg.Error(context.Background(), "failed to create wizard sessions", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			profilesService,
			publishService,
			ingestService,
			notificationsService,
			wizardSessions,
		),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
