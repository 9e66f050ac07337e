package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/agent/llm"
	"github.com/deepmodel/agenthub/internal/api"
	"github.com/deepmodel/agenthub/internal/config"
	"github.com/deepmodel/agenthub/internal/engine"
	"github.com/deepmodel/agenthub/internal/planner"
	"github.com/deepmodel/agenthub/internal/store"
	"github.com/deepmodel/agenthub/internal/tools"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("agenthub: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"model", cfg.OpenAIModel,
	)

	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, agent calls will fail")
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	client := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	toolManager := tools.NewMockManager()

	registry := agent.NewRegistry()
	if err := llm.RegisterAll(registry, client, toolManager); err != nil {
		log.Fatalf("failed to register agents: %v", err)
	}

	eng := engine.NewEngine(db, registry, logger, cfg.TaskTimeout)

	p, err := planner.New(client, registry, db, logger)
	if err != nil {
		log.Fatalf("failed to create planner: %v", err)
	}

	srv := api.NewServer(cfg.ListenAddr, db, registry, eng, p, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
