package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/foodgram/internal/backup"
	"github.com/dukerupert/foodgram/internal/config"
	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/logging"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/seed"
	"github.com/dukerupert/foodgram/internal/server"
	"github.com/dukerupert/foodgram/internal/store"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	seedPath := flag.String("seed", "", "load tags and ingredients from a JSON file and exit")
	snapshot := flag.Bool("snapshot", false, "upload a database snapshot to S3 storage and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *seedPath != "" {
		data, err := seed.Load(*seedPath)
		if err != nil {
			slog.Error("failed to read seed file", "error", err)
			os.Exit(1)
		}
		res, err := seed.Apply(data, store.NewTagStore(db), store.NewIngredientStore(db), logger.With("component", "seed"))
		if err != nil {
			slog.Error("seed failed", "error", err)
			os.Exit(1)
		}
		slog.Info("seed complete",
			"ingredients", res.IngredientsCreated,
			"tags", res.TagsCreated,
			"skipped", res.Skipped,
		)
		return
	}

	if *snapshot {
		s, err := backup.New(db, backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		}, cfg.SnapshotKeep, logger.With("component", "backup"))
		if err != nil {
			slog.Error("snapshot unavailable", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			slog.Error("snapshot failed", "error", err)
			os.Exit(1)
		}
		return
	}

	images, err := media.New(cfg.MediaDir)
	if err != nil {
		slog.Error("failed to prepare media dir", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, cfg, images, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup(time.Hour)
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("foodgram starting", "addr", ":"+cfg.Port, "domain", cfg.Domain)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down", "feed_clients", srv.Hub().ClientCount())
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
