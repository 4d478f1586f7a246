package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/eigentalk/internal/config"
	"github.com/scrypster/eigentalk/internal/llm"
	"github.com/scrypster/eigentalk/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional; overrides environment)")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFromFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Build the completion-service client
	completer, err := llm.NewChatCompleter(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, relay := server.Start(ctx, cfg, completer)
	log.Printf("Eigentalk relay running at ws://%s/ws (provider: %s, model: %s)",
		addr, cfg.LLM.Provider, completer.GetModel())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	relay.Stop()
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
