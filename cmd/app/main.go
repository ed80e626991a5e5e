package main

import (
	"context"
	"flag"
	"log"
	"os"

	"PerfectRatio/internal/di"
	"PerfectRatio/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
