package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"plancraft/api/internal/cache"
	"plancraft/api/internal/cms"
	"plancraft/api/internal/config"
	"plancraft/api/internal/search"
	"plancraft/api/internal/store"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log.With().Str("component", "meili").Logger())
	}
	searchService := search.NewService(meiliClient, pgfts, log.With().Str("component", "search").Logger())
	defer searchService.Close()

	var contentCache *cache.Content
	if strings.TrimSpace(cfg.RedisURL) != "" {
		contentCache, err = cache.New(cfg.RedisURL, cfg.CacheTTL, log.With().Str("component", "cache").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer contentCache.Close()
		log.Info().Msg("content cache enabled")
	}

	service := cms.New(cfg, dataStore, contentCache, searchService)

	scheduler := cms.NewScheduler(service, cfg.SchedulerInterval, log.With().Str("component", "scheduler").Logger())
	go scheduler.Run(ctx)
	defer scheduler.Stop()

	httpServer := cms.NewHTTPServer(service, cfg.CORSOrigin, log.With().Str("component", "http").Logger())
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("plancraft API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
