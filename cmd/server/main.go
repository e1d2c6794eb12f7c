package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"

	"github.com/ccxiaoji/autoledger/infra/initializer"
	"github.com/ccxiaoji/autoledger/pkg/config"
	"github.com/ccxiaoji/autoledger/pkg/parser"
	"github.com/ccxiaoji/autoledger/pkg/recommend"
	"github.com/ccxiaoji/autoledger/pkg/service/autoledger"
	"github.com/ccxiaoji/autoledger/pkg/service/syncer"
	"github.com/ccxiaoji/autoledger/pkg/service/txcreate"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	logger := initializer.SetupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := initializer.InitializeDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Settings.Close()
	defer deps.EventBus.Close()

	sync := syncer.New(deps.Uow, logger)
	creator := txcreate.New(deps.Uow, sync, logger)
	lastUsed := recommend.NewLastUsed(deps.KVStore)
	recommender := recommend.New(deps.Uow, lastUsed, logger)

	pipeline := autoledger.New(
		autoledger.Config{
			UserID:    cfg.Pipeline.UserID,
			Workers:   cfg.Pipeline.Workers,
			QueueSize: cfg.Pipeline.QueueSize,
		},
		deps.Uow,
		deps.EventBus,
		deps.Dedup,
		parser.NewKeywordParser(),
		recommender,
		lastUsed,
		creator,
		deps.Settings,
		logger,
	)
	if err := pipeline.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	janitor, err := autoledger.NewJanitor(
		deps.Dedup, deps.Uow, cfg.Pipeline.DebugRetention, cfg.Pipeline.CleanupSpec, logger)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	janitor.Start()

	logger.Info("🚀 autoledger running",
		"env", cfg.Env,
		"bus", cfg.Bus.Kind,
		"user", cfg.Pipeline.UserID,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("👋 shutting down", "signal", sig.String())

	janitor.Stop()
	pipeline.Stop()
	return nil
}
