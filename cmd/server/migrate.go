package main

import (
	"fmt"

	"github.com/godilite/eval-server/internal/app"
	"github.com/godilite/eval-server/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadFromEnv()

		logger, err := config.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		db, err := app.OpenDatabase(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return db.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
