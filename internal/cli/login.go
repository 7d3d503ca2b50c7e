package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-gateway/internal/config"
	"quiz-gateway/internal/credentials"
)

// NewLoginCmd stores a bearer token (and optionally a user id) in the shared
// credential store. With Redis configured the login survives the process and
// is visible to serve/take; without it the command can only validate input.
func NewLoginCmd(configPath *string) *cobra.Command {
	var token string
	var userID int64

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store upstream API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("login needs a redis-backed credential store; set redis.addr in %s", *configPath)
			}

			creds := newCredentials(cfg)
			if err := creds.SetToken(token); err != nil {
				return err
			}
			if userID > 0 {
				if err := creds.SetUserID(userID); err != nil {
					return err
				}
			}
			resolved, err := credentials.ResolveUserID(creds)
			if err != nil {
				return fmt.Errorf("token stored, but no user id could be recovered from it; pass --user: %w", err)
			}
			fmt.Printf("logged in as user %d\n", resolved)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token for the upstream API")
	cmd.Flags().Int64Var(&userID, "user", 0, "numeric user id (optional when present in the token)")
	return cmd
}
