// Package main is the entry point of the evaluation server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eval-server",
	Short: "Evaluation scoring and access approval server",
	Long:  "eval-server serves the scoring engine and access approval workflow over gRPC and relays notifications over HTTP.",
	RunE:  runServe,
}

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
