// Package main runs the pokerbase API server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/StackLine-App/pokerbase/internal/app/runtime"
	"github.com/StackLine-App/pokerbase/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port override")
	dsn := flag.String("dsn", "", "Postgres DSN override")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dsn != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = *dsn
	}

	rt, err := runtime.New(cfg)
	if err != nil {
		log.Fatalf("init runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("pokerbased starting on %s:%s", cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if err := rt.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
