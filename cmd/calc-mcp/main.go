// Command calc-mcp serves the calculator as MCP tools over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"scicalc/internal/app"
	"scicalc/internal/config"
	"scicalc/internal/mcp"
	"scicalc/internal/observability"
)

var version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("calc-mcp version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// stdout carries the MCP protocol; zap writes to stderr.
	if err := observability.InitLogger(cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer observability.SyncLogger()

	rt, err := app.New(context.Background(), cfg, observability.Logger)
	if err != nil {
		log.Fatalf("Failed to start calculator: %v", err)
	}

	server := mcp.NewServer(rt.Sessions, version, observability.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		observability.Logger.Info("shutting down")
		_ = rt.Close()
		os.Exit(0)
	}()

	observability.Logger.Info("calc-mcp server starting")
	if err := server.ServeStdio(); err != nil {
		_ = rt.Close()
		log.Fatalf("Server error: %v", err)
	}
	_ = rt.Close()
}
