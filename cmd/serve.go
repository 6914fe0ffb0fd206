package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailassist_server/config"
	"mailassist_server/internal/bootstrap"
	"mailassist_server/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return runServer(cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT)")
	return cmd
}

func logLevel(cfg *config.Config) logger.Level {
	if cfg.LogLevel != "" {
		return logger.ParseLevel(cfg.LogLevel)
	}
	if cfg.IsDevelopment() {
		return logger.LevelDebug
	}
	return logger.LevelInfo
}

func runServer(cfg *config.Config) error {
	logger.Init(logger.Config{
		Level:   logLevel(cfg),
		Service: "mailassist-api",
		Pretty:  cfg.IsDevelopment(),
	})

	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Error("Error shutting down: %v", err)
			return
		}
		logger.Info("API server shut down gracefully")
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	return app.Listen(addr)
}
