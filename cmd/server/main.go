// Package main provides the recommendation server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/se-wein/kumrec-go/internal/answer"
	"github.com/se-wein/kumrec-go/internal/chat"
	"github.com/se-wein/kumrec-go/internal/config"
	"github.com/se-wein/kumrec-go/internal/dialog"
	"github.com/se-wein/kumrec-go/internal/engine"
	"github.com/se-wein/kumrec-go/internal/genai"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/metrics"
	"github.com/se-wein/kumrec-go/internal/record"
	"github.com/se-wein/kumrec-go/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting KUM recommendation server")

	// Connect to database
	db, err := storage.New(filepath.Join(cfg.DataDir, "kumrec.db"))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", db.Path()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Import program records when a source file is configured
	if cfg.RecordsPath != "" {
		count, err := importRecords(context.Background(), db, cfg.RecordsPath)
		if err != nil {
			log.WithError(err).WithField("path", cfg.RecordsPath).Fatal("Failed to import records")
		}
		log.WithField("count", count).Info("Program records imported")
	}

	// Build the in-memory catalog from stored rows
	rows, err := db.ListPrograms(context.Background())
	if err != nil {
		log.WithError(err).Fatal("Failed to load program records")
	}
	programs := make([]*record.Program, 0, len(rows))
	for _, r := range rows {
		programs = append(programs, record.NewProgram(r.ID, r.Text, r.EventStart, r.EventEnd))
	}
	catalog := record.NewCatalog(programs)
	log.WithField("programs", catalog.Len()).Info("Catalog loaded")

	// Build the collaborator chain (primary provider plus fallback)
	embedder, generator, err := genai.Build(context.Background(), genai.Config{
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		Primary:         genai.Provider(cfg.PrimaryProvider),
		EmbeddingModel:  cfg.EmbeddingModel,
		GenerationModel: cfg.GenerationModel,
		Timeout:         cfg.CollaboratorTimeout,
		Retry:           genai.DefaultRetryConfig(),
	}, m)
	if err != nil {
		log.WithError(err).Fatal("Failed to build collaborators")
	}
	log.WithField("primary", cfg.PrimaryProvider).Info("Collaborators ready")

	cache := engine.NewEmbedCache(embedder, db, m)

	eng := engine.New(catalog, cache, engine.Options{
		Profile:      cfg.Profile,
		ScheduleMode: cfg.ScheduleMode,
		TopK:         cfg.TopK,
		Workers:      cfg.Workers,
	}, log, m)

	// Warm the embedding cache in the background so startup stays fast
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in cache warmup goroutine")
			}
		}()
		if err := eng.Initialize(context.Background()); err != nil {
			log.WithError(err).Warn("Embedding cache warmup incomplete")
		}
	}()

	answerer := answer.New(catalog, cache, generator, cfg.Profile.TitleMatchThreshold, log)
	chatService := chat.NewService(eng, answerer, dialog.NewManager(), db, m, log)

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	handlers := &api{chat: chatService, db: db, log: log.WithModule("api")}
	setupRoutes(router, handlers, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.HTTPReadTimeout,
		WriteTimeout: config.HTTPWriteTimeout,
		IdleTimeout:  config.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
