package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/signalengine/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz and /metrics without running the ingestion pipeline",
		Long:  `serve starts internal/httpapi standalone, useful for probing the metrics/health surface independently of a live or backtest run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9090", "host:port to listen on")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	ctx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := httpapi.DefaultConfig()
	cfg.Host, cfg.Port = splitHostPort(addr)

	health := httpapi.NewHealthHandler(nil, nil, version)
	metrics := httpapi.NewMetricsRegistry()
	srv := httpapi.NewServer(cfg, health, metrics, log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().Str("addr", addr).Msg("serve started")

	select {
	case <-ctx.Done():
		log.Info().Msg("serve shutting down")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
