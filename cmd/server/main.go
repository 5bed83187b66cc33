package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-ops/internal/api"
	"retail-ops/internal/config"
	"retail-ops/internal/db"
	"retail-ops/internal/embedding"
	"retail-ops/internal/forecast"
	"retail-ops/internal/repository"
	"retail-ops/internal/search"
	"retail-ops/internal/services/progress"
	"retail-ops/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting retail-ops backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Tracing first so all startup operations are traced
	jaegerShutdown, err := telemetry.InitJaeger("retail-ops", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// The embedding model handle is loaded exactly once, here. Every
	// encode call in the process reuses it; a reachable embedding service
	// is a startup requirement, not a per-request concern.
	embClient := embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingModel)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 60*time.Second)
	handle, err := embedding.Load(loadCtx, embClient, cfg.EmbeddingDim)
	cancelLoad()
	if err != nil {
		log.Fatalf("❌ Failed to load embedding model: %v", err)
	}

	// Repositories
	docRepo := repository.NewDocumentRepository(database.DB)
	tagRepo := repository.NewTagRepository(database.DB)
	salesRepo := repository.NewSalesRepository(database.DB)

	// Ranking engine
	engine := search.NewEngine(handle, docRepo, tagRepo, search.Weights{
		CategoryBoost:       cfg.CategoryBoost,
		TitleBoost:          cfg.TitleBoost,
		AbstentionThreshold: cfg.AbstentionThreshold,
	})

	// Forecasting: disk-persisted models behind the in-memory cache
	modelStore, err := forecast.NewDiskStore(cfg.ModelDir)
	if err != nil {
		log.Fatalf("❌ Failed to open model store: %v", err)
	}

	hub := progress.NewHub()
	hub.Start()

	orchestrator := forecast.NewOrchestrator(
		salesRepo,
		modelStore,
		forecast.NewTrendFitter(),
		cfg.MinTrainPoints,
		cfg.TrainWorkers,
		hub,
	)

	handler := api.NewHandler(docRepo, tagRepo, salesRepo, engine, orchestrator, handle, hub)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch training responds inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 API Endpoints:")
		log.Printf("   POST   /api/search                - Hybrid document search")
		log.Printf("   POST   /api/rag/ask               - Question answering")
		log.Printf("   POST   /api/documents             - Create document")
		log.Printf("   POST   /api/sales/upload          - Ingest sales CSV")
		log.Printf("   POST   /api/forecast/train        - Train one product model")
		log.Printf("   POST   /api/forecast/train-all    - Train the whole catalog")
		log.Printf("   POST   /api/forecast/predict      - Forecast product demand")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	hub.Shutdown()

	log.Println("✓ Server shutdown complete")
}
