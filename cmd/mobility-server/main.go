package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-mobility-planner/internal/app"
	"ai-mobility-planner/internal/config"
	"ai-mobility-planner/internal/database"
	"ai-mobility-planner/internal/geo"
	"ai-mobility-planner/internal/llm"
	"ai-mobility-planner/internal/metrics"
	"ai-mobility-planner/internal/planner"
	"ai-mobility-planner/internal/routing"
	"ai-mobility-planner/internal/server"
	"ai-mobility-planner/internal/trace"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Initialize Infrastructure
	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 3. Initialize Services
	llmPlanner := planner.NewLLMPlanner(geminiClient)
	mapsClient := geo.NewClient(cfg)

	application := app.NewApp(
		planner.NewPlanner(llmPlanner),
		llmPlanner,
		geo.NewResolver(mapsClient),
		routing.NewEngine(mapsClient, routing.DefaultWorkers),
		trace.NewRepository(db.SQL),
		metrics.NewStore(db.SQL),
	)

	// 4. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	server.NewServer(application).RegisterHandlers(mux)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Printf("Mobility server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
