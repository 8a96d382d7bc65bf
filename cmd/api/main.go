package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/clashstream/internal/api/handler"
	"github.com/hszk-dev/clashstream/internal/api/middleware"
	"github.com/hszk-dev/clashstream/internal/config"
	"github.com/hszk-dev/clashstream/internal/infrastructure/cache"
	"github.com/hszk-dev/clashstream/internal/infrastructure/upstream"
	"github.com/hszk-dev/clashstream/internal/infrastructure/ytdlp"
	"github.com/hszk-dev/clashstream/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := cfg.Server.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if _, err := exec.LookPath(cfg.Extractor.BinaryPath); err != nil {
		logger.Warn("extraction tool not found, extraction will fail until it is installed",
			slog.String("path", cfg.Extractor.BinaryPath),
			slog.String("error", err.Error()),
		)
	}

	// Infrastructure
	clock := cache.SystemClock{}
	store := cache.NewStore(cache.StoreConfig{
		TrackTTL:  cfg.Cache.TrackTTL,
		SearchTTL: cfg.Cache.SearchTTL,
		FailedCap: cfg.Cache.FailedCap,
	}, clock)

	source := ytdlp.NewCLI(ytdlp.Config{
		BinaryPath:    cfg.Extractor.BinaryPath,
		CookiesFile:   cfg.Extractor.CookiesFile,
		Timeout:       cfg.Extractor.Timeout,
		RateLimit:     cfg.Extractor.RateLimit,
		RateBurst:     cfg.Extractor.RateBurst,
		MaxConcurrent: cfg.Extractor.MaxConcurrent,
	})

	fetcher := upstream.NewClient(upstream.ClientConfig{
		Timeout:         cfg.Stream.Timeout,
		MaxRedirects:    cfg.Stream.MaxRedirects,
		MaxConnsPerHost: cfg.Stream.MaxConnsPerHost,
		MaxIdleConns:    cfg.Stream.MaxIdleConns,
		IdleConnTimeout: cfg.Stream.IdleConnTimeout,
	})

	// Services
	extractor := usecase.NewDefaultExtractor(source, cfg.Extractor.PlayerClients)
	tracks := usecase.NewTrackService(extractor, store, clock)
	searches := usecase.NewSearchService(source, store)

	discoveryCfg := usecase.DefaultDiscoveryServiceConfig()
	discoveryCfg.TrendingTopics = cfg.Discovery.TrendingTopics
	discoveryCfg.RelatedFallbackTopic = cfg.Discovery.RelatedFallbackTopic
	discovery := usecase.NewDiscoveryService(tracks, searches, discoveryCfg)

	streams := usecase.NewStreamService(tracks, fetcher, usecase.StreamServiceConfig{
		MaxRetries: cfg.Stream.MaxRetries,
	})

	r := setupRouter(logger,
		handler.NewTrackHandler(tracks, searches, discovery),
		handler.NewStreamHandler(streams),
		handler.NewHealthHandler(store),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Run(sweepCtx, cfg.Cache.SweepInterval)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.Any("player_clients", cfg.Extractor.PlayerClients),
			slog.Bool("cookies", cfg.Extractor.CookiesFile != ""),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopSweep()
		wg.Wait()
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(ctx)
	stopSweep()
	wg.Wait()

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown error: %w", shutdownErr)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(
	logger *slog.Logger,
	tracks *handler.TrackHandler,
	streams *handler.StreamHandler,
	health *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/play/{id}", tracks.Play)
	r.Get("/search", tracks.Search)
	r.Get("/search-list", tracks.SearchList)
	r.Get("/trending", tracks.Trending)
	r.Get("/related/{id}", tracks.Related)

	r.Get("/stream/{id}", streams.Stream)
	r.Options("/stream/{id}", streams.Preflight)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Post("/clear-cache", health.ClearCache)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
