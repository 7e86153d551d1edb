package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/config"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/logging"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/server"
)

type serveOptions struct {
	host     string
	port     string
	dev      bool
	logLevel string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Example: `  writer-backend serve
  writer-backend serve --port 9000 --dev
  WRITER_PROCESS_DEFAULT_PORT=5000 writer-backend`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Address to listen on (overrides WRITER_SERVER_HOST)")
	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "Port to listen on (overrides WRITER_SERVER_PORT)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "Development logging: console output at debug level")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func loadConfig(cmd *cobra.Command, opts serveOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = opts.dev
		if opts.dev && !flags.Changed("log-level") {
			cfg.Logging.Level = "debug"
		}
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}
