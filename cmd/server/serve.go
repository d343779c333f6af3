package main

import (
	"fmt"

	"github.com/godilite/eval-server/internal/app"
	"github.com/godilite/eval-server/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC and HTTP servers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFromEnv()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return err
	}

	if err := application.Run(cmd.Context()); err != nil {
		logger.Error("Application exited with error", zap.Error(err))
		return err
	}
	return nil
}
