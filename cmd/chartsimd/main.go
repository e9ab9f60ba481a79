package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantclass/chartsim/internal/api"
	"github.com/quantclass/chartsim/internal/app"
	"github.com/quantclass/chartsim/internal/config"
	"github.com/quantclass/chartsim/internal/journal"
	"github.com/quantclass/chartsim/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	addr := flag.String("addr", "", "override api listen address")
	seed := flag.Int64("seed", 0, "rng seed for a reproducible run (0 = random)")
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		slog.Warn("config file unavailable, using defaults", "path", *cfgPath, "err", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if *addr != "" {
		cfg.API.Addr = *addr
	}
	if *seed != 0 {
		cfg.Market.RNGSeed = *seed
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFile)
	slog.Info("chartsimd starting",
		"addr", cfg.API.Addr,
		"tick", cfg.Market.TickInterval,
		"seed_candles", cfg.Market.SeedCandles,
		"balance", cfg.Trading.StartingBalance,
	)

	var rec journal.Recorder = journal.NewNoopRecorder()
	if cfg.Journal.Path != "" {
		sqlRec, err := journal.NewSQLiteRecorder(cfg.Journal.Path)
		if err != nil {
			slog.Error("open journal", "path", cfg.Journal.Path, "err", err)
			os.Exit(1)
		}
		rec = sqlRec
		slog.Info("trade journal enabled", "path", cfg.Journal.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	hub := api.NewHub()
	session := app.New(cfg, rec, hub)
	hub.Bind(session)

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg.API.Addr, session, hub)
		if err := apiServer.Start(ctx); err != nil {
			slog.Error("api server failed to start", "err", err)
			os.Exit(1)
		}
	}

	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session run", "err", err)
	}

	if apiServer != nil {
		_ = apiServer.Shutdown(context.Background())
	}
	if err := rec.Close(); err != nil {
		slog.Warn("close journal", "err", err)
	}
}
