// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/cache"
	"github.com/olegiv/ocms-blog/internal/config"
	"github.com/olegiv/ocms-blog/internal/embedding"
	"github.com/olegiv/ocms-blog/internal/handler/api"
	"github.com/olegiv/ocms-blog/internal/hook"
	"github.com/olegiv/ocms-blog/internal/imaging"
	"github.com/olegiv/ocms-blog/internal/logging"
	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/pipeline"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/scheduler"
	"github.com/olegiv/ocms-blog/internal/service"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/translate"
	"github.com/olegiv/ocms-blog/internal/version"
	"github.com/olegiv/ocms-blog/internal/writer"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	backfillOnly := flag.Bool("backfill", false, "Embed translations without vectors, then exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ocms-blog - multilingual blog backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DATABASE_URL          Postgres connection string (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT           Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL             Redis URL for the translation cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_WRITER_API_KEY        Content generator API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_TRANSLATOR_API_KEY    Translation service API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_IMAGE_API_KEY         Image generator API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_EMBEDDING_API_URL     Feature extraction endpoint\n")
	}

	flag.Parse()

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo, *backfillOnly); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newBaseHandler(cfg *config.Config) slog.Handler {
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if cfg.LogFormat == "json" {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

func run(versionInfo version.Info, backfillOnly bool) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	baseHandler := newBaseHandler(cfg)
	logger := slog.New(baseHandler)
	slog.SetDefault(logger)

	ctx := context.Background()

	slog.Info("running database migrations")
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	dbCfg := store.DefaultDBConfig()
	dbCfg.MaxConns = cfg.DBMaxConns
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, dbCfg)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()
	db := store.New(pool)
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the events table
	logger = slog.New(logging.NewEventLogHandler(baseHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	m, metricsHandler := metrics.Setup()

	// Every upstream AI call shares one limiter.
	limiter := ai.NewLimiter(cfg.AIRateLimit, cfg.AIBurst, cfg.AIMaxConcurrent)
	clientOpts := []ai.Option{ai.WithUsageRecorder(db), ai.WithMetrics(m)}
	newClient := func(url, key, model string) *ai.Client {
		return ai.NewClient(ai.Config{BaseURL: url, APIKey: key, Model: model, Timeout: cfg.AITimeout},
			limiter, logger, clientOpts...)
	}
	writerClient := newClient(cfg.WriterAPIURL, cfg.WriterAPIKey, cfg.WriterModel)
	translatorClient := newClient(cfg.TranslatorAPIURL, cfg.TranslatorAPIKey, cfg.TranslatorModel)
	imageClient := newClient(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageModel)
	embeddingClient := newClient(cfg.EmbeddingAPIURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)

	embedding.Configure(embedding.NewGenerator(cfg.EmbeddingDimensions, func() (embedding.Extractor, error) {
		slog.Info("feature extractor initialized", "model", embeddingClient.Model(), "dimensions", cfg.EmbeddingDimensions)
		return embeddingClient, nil
	}))
	gen, err := embedding.Default()
	if err != nil {
		return fmt.Errorf("configuring embeddings: %w", err)
	}
	embedder := pipeline.NewEmbedder(db, gen, cfg.EmbedSkipUnchanged, m, logger)

	if backfillOnly {
		summary, err := scheduler.New(embedder, "", logger).RunOnce(ctx)
		if err != nil {
			return err
		}
		slog.Info("backfill finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
		return nil
	}

	translationCache := cache.New(ctx, cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
	}, logger)
	defer func() { _ = translationCache.Close() }()

	translator := translate.New(translatorClient, translationCache, cfg.CacheTTL, logger)
	contentWriter := writer.New(writerClient, translator, logger)
	processor := imaging.NewProcessor(cfg.UploadsDir)
	covers := imaging.NewGenerator(imageClient, cfg.ImageWidth, cfg.ImageHeight, cfg.ThumbnailWidth, logger)

	mediaService := service.NewMediaService(db, processor, cfg.PublicURL, logger)

	p := pipeline.New(pipeline.Deps{
		Posts:      db,
		Categories: db,
		Media:      mediaService,
		Writer:     contentWriter,
		Translator: translator,
		Covers:     covers,
		Embedder:   embedder,
		Metrics:    m,
		Logger:     logger,
	})

	hooks := hook.NewRegistry(logger)
	p.RegisterHooks(hooks)
	slog.Info("pipeline hooks registered", "hooks", hooks.ListHooks())

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		categories, err := db.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		for _, c := range categories {
			p.ScheduleCategory(c.ID)
		}
	}

	sched := scheduler.New(embedder, cfg.BackfillSchedule, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	h := api.NewHandler(api.Deps{
		Store:       db,
		Posts:       service.NewPostService(db, hooks, logger),
		Categories:  service.NewCategoryService(db, hooks, logger),
		Media:       mediaService,
		Subscribers: service.NewSubscriberService(db, logger),
		Searcher:    pipeline.NewSearcher(db, gen, m, logger),
		Embedder:    embedder,
		Renderer:    render.New(),
		Version:     versionInfo,
		Logger:      logger,
	})
	router := api.NewRouter(h, api.RouterConfig{
		IsDevelopment:  cfg.IsDevelopment(),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.APIRateLimit,
		RequestTimeout: 30 * time.Second,
		UploadsDir:     cfg.UploadsDir,
		Metrics:        m,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute, // Manual re-embedding runs synchronously
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop()
	if err := p.Runner().Stop(shutdownCtx); err != nil {
		slog.Warn("pipeline runs still active at shutdown", "active", p.Runner().Active(), "error", err)
	}

	slog.Info("server stopped")
	return nil
}
