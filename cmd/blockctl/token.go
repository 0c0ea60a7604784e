package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for AUTH_MODE=jwt",
		Long:  "Signs an HS256 token with JWT_SECRET. The subject becomes the actor id on every request made with it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// only JWT_SECRET is needed, so skip full config validation
			_ = godotenv.Load(opts.envFile)
			provider, err := services.NewJWTProvider(os.Getenv("JWT_SECRET"))
			if err != nil {
				return err
			}
			if subject == "" {
				subject = opts.actor
			}
			token, err := provider.IssueToken(subject, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (default: --actor)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
