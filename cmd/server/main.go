package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/palemoky/wolfpath/internal/config"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/server"
)

const shutdownTimeout = 10 * time.Second

var configFile string

var rootCmd = &cobra.Command{
	Use:          "wolfpath-server",
	Short:        "Wolfpath game server",
	Long:         "Runs the lobby API and the websocket endpoint for Wolfpath rooms.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			cfg = config.Default()
		}
		if lerr := logger.Init("wolfpath", cfg.Log.Level, cfg.Log.File); lerr != nil {
			return lerr
		}
		defer logger.Close()
		if err != nil {
			logger.Warn("config not loaded, using defaults", "path", configFile, "err", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.Open(ctx, cfg)
		if err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("🛑 shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
