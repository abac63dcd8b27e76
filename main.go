package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendly/timeclock/config"
	"github.com/attendly/timeclock/engine"
	"github.com/attendly/timeclock/journal"
	"github.com/attendly/timeclock/repository"
	"github.com/attendly/timeclock/server"
	"github.com/attendly/timeclock/srvreg"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

var (
	configPath   string
	httpPort     string
	postgresHost string
	badgerDir    string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the TOML config file")
	flag.StringVar(&httpPort, "http-port", "", "HTTP web server port (overrides config)")
	flag.StringVar(&postgresHost, "postgres-host", "", "DB host address (overrides config)")
	flag.StringVar(&badgerDir, "badger-dir", "", "Audit journal directory (overrides config)")
}

func main() {
	flag.Parse()

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	if httpPort != "" {
		cfg.HTTPPort = httpPort
	}
	if postgresHost != "" {
		cfg.Postgres.Host = postgresHost
	}
	if badgerDir != "" {
		cfg.BadgerDir = badgerDir
	}

	policy, err := cfg.EnginePolicy()
	if err != nil {
		log.Fatalf("Invalid policy configuration: %v", err)
	}

	// Connect Postgresql DB
	store := repository.NewPostgresStore(logger)
	logger.Info("Connecting to Postgres", "host", cfg.Postgres.Host)
	if err := store.ConnectDB(cfg.DSN()); err != nil {
		log.Fatalf("Connecting to database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		log.Fatalf("Migrating database: %v", err)
	}
	if cfg.Seed {
		store.Seed()
	}

	// Open audit journal
	jnl, err := journal.Open(cfg.BadgerDir, logger)
	if err != nil {
		log.Fatalf("Opening journal: %v", err)
	}
	defer func() {
		if err := jnl.Close(); err != nil {
			logger.Error("Closing journal", "err", err)
		}
	}()

	// Wire the engine and its HTTP surface
	eng := engine.NewEngine(store, jnl, policy, logger)
	serviceRegistry := srvreg.NewServiceRegistry(eng, logger)
	serviceRegistry.RegisterDefaultServices()

	webserver := server.NewWebServer(cfg.HTTPPort, serviceRegistry, jnl, logger)
	webserver.Start()

	// Wait for interrupt signal to gracefully shut down the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webserver.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "err", err)
	}
}
