package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a console config file")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.LoadConsole(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Component(logger.SetupTo(os.Stderr, cfg.LogLevel, cfg.LogFormat), "console")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Wire Client ───────────────────────────────────────────────────
	api := client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout), client.WithToken(cfg.Token))
	console := NewConsole(api, os.Stdin, os.Stdout, log)

	if err := console.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Console stopped")
		os.Exit(1)
	}
}
