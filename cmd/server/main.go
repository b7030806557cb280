package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/pabg92/astralabs-sub005/internal/ai"
	"github.com/pabg92/astralabs-sub005/internal/config"
	"github.com/pabg92/astralabs-sub005/internal/docstore"
	"github.com/pabg92/astralabs-sub005/internal/library"
	"github.com/pabg92/astralabs-sub005/internal/locate"
	"github.com/pabg92/astralabs-sub005/internal/match"
	"github.com/pabg92/astralabs-sub005/internal/review"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/db"
	"github.com/pabg92/astralabs-sub005/pkg/httpx"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.MustConnect(cfg.Database.DSN)
	defer pool.Close()
	st := store.New(pool)

	aiClient := ai.New(cfg.AI.BaseURL, cfg.AI.APIKey, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	if cfg.Redis.URL != "" {
		cache, err := ai.NewEmbedCache(cfg.Redis.URL, time.Duration(cfg.Redis.EmbedCacheHours)*time.Hour)
		if err != nil {
			logger.Warn(ctx, "embedding cache disabled", "error", err)
		} else {
			aiClient = aiClient.WithCache(cache)
		}
	}

	engine := match.NewEngine(st, aiClient, match.Options{
		GreenThreshold:  cfg.Matching.GreenThreshold,
		ReviewThreshold: cfg.Matching.ReviewThreshold,
		MaxResults:      cfg.Matching.MaxResults,
	})
	matchHandler := match.NewHandler(engine)
	reviewHandler := review.NewHandler(st)
	libraryHandler := library.NewHandler(st)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httpx.RequestID)
		r.Use(httpx.RequestLogger)
		r.Use(httpx.Tenant)

		r.Post("/match", matchHandler.HandleMatch)

		r.Post("/review/accept", reviewHandler.HandleAccept)
		r.Post("/review/reject", reviewHandler.HandleReject)
		r.Get("/review/pending", reviewHandler.HandlePending)

		r.Get("/library/entries", libraryHandler.HandleList)
		r.Get("/library/entries/{clause_id}", libraryHandler.HandleGet)

		if cfg.Minio.Endpoint != "" {
			texts, err := docstore.New(cfg.Minio)
			if err != nil {
				logger.Warn(ctx, "document text store disabled", "error", err)
			} else {
				locateHandler := locate.NewHandler(locate.New(st, texts))
				r.Post("/documents/{document_id}/locate", locateHandler.HandleLocate)
			}
		}
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(context.Background(), "shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server failed", "error", err)
			os.Exit(1)
		}
	}
}
