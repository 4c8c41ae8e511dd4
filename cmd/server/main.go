package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/silid-lounge/api/internal/cache"
	"github.com/silid-lounge/api/internal/config"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/notify"
	"github.com/silid-lounge/api/internal/router"
	"github.com/silid-lounge/api/internal/storage"
	"github.com/silid-lounge/api/internal/ws"
)

func main() {
	// Best effort; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	notifications := notify.NewStore()

	hub := ws.NewHub()
	hub.OnEvent(notifications.Inc)
	go hub.Run()

	reportCache := cache.NewReportCache(cfg.RedisURL, cfg.ReportCacheTTL)
	if reportCache.Enabled() {
		log.Println("Report cache enabled")
	}

	photos := storage.NewPhotoStore(cfg.S3PhotoBucket)
	if photos.Enabled() {
		log.Printf("Photo uploads enabled (bucket %s)", cfg.S3PhotoBucket)
	}

	r := router.New(cfg, queries, pool, hub, reportCache, photos, notifications)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
