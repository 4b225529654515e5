package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-mobility-planner/internal/app"
	"ai-mobility-planner/internal/config"
	"ai-mobility-planner/internal/database"
	"ai-mobility-planner/internal/geo"
	"ai-mobility-planner/internal/llm"
	"ai-mobility-planner/internal/metrics"
	"ai-mobility-planner/internal/planner"
	"ai-mobility-planner/internal/routing"
	"ai-mobility-planner/internal/trace"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "plan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ai-mobility-planner plan \"<lifestyle description>\"")
			os.Exit(1)
		}
		description := strings.Join(os.Args[2:], " ")

		application := buildApp(ctx, cfg, db)
		mt, err := application.GenerateTrace(ctx, "cli", description)
		if err != nil {
			log.Fatalf("Planning failed: %v", err)
		}
		application.PrintTrace(mt)
		fmt.Printf("\nRun ID: %s\n", mt.RunID)

	case "resume":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ai-mobility-planner resume <run-id>")
			os.Exit(1)
		}

		application := buildApp(ctx, cfg, db)
		mt, err := application.ResumeTrace(ctx, "cli", os.Args[2])
		if err != nil {
			log.Fatalf("Resume failed: %v", err)
		}
		application.PrintTrace(mt)

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		mStore := metrics.NewStore(db.SQL)
		affected, err := mStore.Cleanup(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *database.DB) *app.App {
	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	llmPlanner := planner.NewLLMPlanner(geminiClient)
	mapsClient := geo.NewClient(cfg)

	return app.NewApp(
		planner.NewPlanner(llmPlanner),
		llmPlanner,
		geo.NewResolver(mapsClient),
		routing.NewEngine(mapsClient, routing.DefaultWorkers),
		trace.NewRepository(db.SQL),
		metrics.NewStore(db.SQL),
	)
}

func printUsage() {
	fmt.Println("Usage: ai-mobility-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan \"<description>\"   Generate a seven-day mobility trace for a lifestyle description")
	fmt.Println("  resume <run-id>        Continue an aborted run from its snapshot")
	fmt.Println("  metrics-cleanup        Remove old metric records")
}
