package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/coldtrace/internal/analysis"
	"github.com/HerbHall/coldtrace/internal/config"
	"github.com/HerbHall/coldtrace/internal/ingest"
	"github.com/HerbHall/coldtrace/internal/server"
	"github.com/HerbHall/coldtrace/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root)
		},
	}
	cmd.Flags().String("host", "0.0.0.0", "listen host")
	cmd.Flags().Int("port", 8080, "listen port")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions) error {
	v, logger, err := loadConfig(cmd, root,
		flagBinding{"server.host", "host"},
		flagBinding{"server.port", "port"},
	)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("coldtrace server starting", zap.String("version", version.Short()))

	ingestOpts, err := config.Ingest(v)
	if err != nil {
		return err
	}
	analysisCfg, err := config.Analysis(v, ingestOpts.Location)
	if err != nil {
		return err
	}
	serverCfg, err := config.Server(v)
	if err != nil {
		return err
	}

	analyzer, err := analysis.New(analysisCfg, logger.Named("analysis"),
		analysis.WithMetrics(analysis.NewMetrics(prometheus.DefaultRegisterer)))
	if err != nil {
		return err
	}
	parser := ingest.NewParser(logger.Named("ingest"), ingestOpts)
	srv := server.New(serverCfg, analyzer, parser, logger.Named("server"), nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("coldtrace server stopped")
	return nil
}
