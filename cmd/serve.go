package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/api"
	"github.com/abhisek/nextstep/internal/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := engine.Build(ctx, cfg, st, log, engine.Options{})
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer eng.Close()

		srv := api.New(eng.Orchestrator, eng.Aggregator, eng.Auth, log.Named("api"))
		errc := make(chan error, 1)
		go func() { errc <- srv.Start(cfg.Server.Addr) }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down", zap.String("addr", cfg.Server.Addr))
		return srv.Shutdown(context.Background())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
