package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/wingman/server/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user",
	Long:  "Print a bearer token for a user. The token is signed with WINGMAN_SECRET, which must match the running server.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := cmd.Flags().GetInt32("user")
		if err != nil {
			return err
		}
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}
		if userID <= 0 {
			return errors.New("--user must be a positive user id")
		}

		secret := os.Getenv("WINGMAN_SECRET")
		if secret == "" {
			return errors.New("WINGMAN_SECRET is not set")
		}

		token, expiresAt, err := auth.GenerateAccessToken(userID, ttl, []byte(secret))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int32("user", 0, "user id the token identifies")
	tokenCmd.Flags().Duration("ttl", auth.DefaultAccessTokenDuration, "token lifetime")
}
