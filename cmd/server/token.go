package main

import (
	"fmt"
	"os"
	"time"

	"github.com/godilite/eval-server/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenUID      string
	tokenEmail    string
	tokenRole     string
	tokenTeamID   string
	tokenHQID     string
	tokenApproved bool
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a caller token with JWT_SECRET for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		signed, err := auth.NewTokenService(secret, tokenTTL).Sign(auth.Claims{
			UID:      tokenUID,
			Email:    tokenEmail,
			Approved: tokenApproved,
			Role:     tokenRole,
			TeamID:   tokenTeamID,
			HQID:     tokenHQID,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "Caller uid (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Caller email")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "USER", "SUPER_ADMIN, TEAM_LEADER or USER")
	tokenCmd.Flags().StringVar(&tokenTeamID, "team-id", "", "Caller team")
	tokenCmd.Flags().StringVar(&tokenHQID, "hq-id", "", "Caller headquarters")
	tokenCmd.Flags().BoolVar(&tokenApproved, "approved", false, "Whether the caller is approved")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("uid")
	rootCmd.AddCommand(tokenCmd)
}
