package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jzx17/taskpool/internal/config"
	"github.com/jzx17/taskpool/internal/history"
	"github.com/jzx17/taskpool/internal/logging"
	"github.com/jzx17/taskpool/internal/server"
	"github.com/jzx17/taskpool/internal/simulation"
	promcollector "github.com/jzx17/taskpool/pkg/metrics/prometheus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load configuration
	cfg, warnings, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
		logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	for _, w := range warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	logger.Info("starting taskpool",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var store *history.Store
	if cfg.HistoryDB != "" {
		store, err = history.Open(cfg.HistoryDB)
		if err != nil {
			logger.Error("failed to open run history", zap.String("path", cfg.HistoryDB), zap.Error(err))
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("history close error", zap.Error(err))
			}
		}()
	}

	opts := simulation.OptionsFromConfig(cfg)
	opts.Metrics = promcollector.NewCollector(reg)
	opts.Logger = logger

	fmt.Fprintf(os.Stdout, "Task pool: Testing & Failure Simulation\n")
	simulation.WriteHeader(os.Stdout, opts)

	summary, err := simulation.Run(ctx, opts)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return 1
	}
	summary.Report(os.Stdout)

	if store != nil {
		if err := store.Save(context.Background(), summary.Record()); err != nil {
			logger.Error("failed to save run", zap.Error(err))
		} else {
			logger.Info("run saved", zap.String("run_id", summary.RunID))
		}
	}

	if cfg.ServeAddr != "" {
		serve(ctx, cfg, store, reg, logger)
	}

	if !summary.Valid() {
		return 1
	}
	return 0
}

// serve runs the status server until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, store *history.Store, reg *prometheus.Registry, logger *zap.Logger) {
	var runStore server.RunStore
	if store != nil {
		runStore = store
	}

	httpServer := server.NewServer(&server.Config{
		Addr:     cfg.ServeAddr,
		Store:    runStore,
		Gatherer: reg,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
}
