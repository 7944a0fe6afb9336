package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/dating-api/internal/auth"
)

var tokenIssueUsername string

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Interact with bearer tokens",
}

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for a username using the configured key",
	Long: `Signs a token exactly like the login endpoint does, without touching the
database. Useful for smoke tests against a running instance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if tokenIssueUsername == "" {
			return errors.New("--username is required")
		}

		tokens, err := auth.NewTokenService(auth.NewTokenConfig(cfg.Auth))
		if err != nil {
			return err
		}
		issued, err := tokens.Issue(tokenIssueUsername)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(issued)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().StringVar(&tokenIssueUsername, "username", "", "Username to put in the sub claim")
	_ = tokenIssueCmd.MarkFlagRequired("username")
}
