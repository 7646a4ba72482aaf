package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sparkops/sparkjobd/internal/config"
	"github.com/sparkops/sparkjobd/internal/jobs"
	"github.com/sparkops/sparkjobd/internal/logging"
	"github.com/sparkops/sparkjobd/internal/server"
)

// runServer wires the registry, launcher, supervisor, facade and HTTP server
// together and runs them until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Output and log directories are created up front; the scripts directory
	// is deployed alongside the binary and only checked at launch time.
	for _, dir := range []string{cfg.Paths.OutputsDir, cfg.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	registry := jobs.NewRegistry()

	launcher := jobs.NewLauncher(
		cfg.Runner.Interpreter,
		cfg.Paths.ScriptsDir,
		cfg.Paths.OutputsDir,
	)

	supervisor := jobs.NewSupervisor(
		registry,
		logger.Named("supervisor"),
		cfg.Runner.PollInterval,
		cfg.Runner.TerminationGrace,
	)

	orchestrator := jobs.NewOrchestrator(
		registry,
		launcher,
		supervisor,
		logger.Named("orchestrator"),
		cfg.Paths.LogsDir,
		cfg.Paths.OutputsDir,
		cfg.Runner.LogPreviewBytes,
		cfg.Runner.DefaultTimeoutSeconds,
	)

	srv := server.New(orchestrator, logger.Named("http"), server.Options{
		Addr:         cfg.Addr(),
		APIKey:       cfg.APIKey,
		CORSOrigins:  cfg.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertPath:  cfg.Server.TLSCertPath,
		TLSKeyPath:   cfg.Server.TLSKeyPath,
		ClientCAPath: cfg.Server.ClientCAPath,
	})

	logger.Info("starting orchestrator",
		zap.String("addr", cfg.Addr()),
		zap.String("scripts_dir", cfg.Paths.ScriptsDir),
		zap.Duration("poll_interval", cfg.Runner.PollInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return supervisor.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		logger.Info("shutting down")

		// Running jobs are not drained on shutdown: the registry is
		// in-memory only and RUNNING records are lost with the process.
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
