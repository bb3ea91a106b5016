package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ragdash/internal/bootstrap"
	"ragdash/internal/config"
	"ragdash/internal/pkg/logger"
)

var (
	configPath = flag.String("config", "configs/config.toml", "Path to the TOML config file")
	baseURL    = flag.String("base-url", "", "RAG backend URL (overrides config)")
	token      = flag.String("token", "", "Bearer token for the backend (overrides config)")
	userID     = flag.String("user", "", "User id sent with chat requests (overrides config)")
	verbose    = flag.Bool("v", false, "Log debug output to stderr")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *token != "" {
		cfg.Auth.Token = *token
	}
	if *userID != "" {
		cfg.API.UserID = *userID
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(level, "console", "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := bootstrap.NewWithConfig(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	r := newREPL(app, os.Stdin, os.Stdout)
	if err := r.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
