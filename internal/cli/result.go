package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-gateway/internal/config"
	"quiz-gateway/internal/credentials"
)

// NewResultCmd fetches a previously recorded score from the upstream API.
func NewResultCmd(configPath *string) *cobra.Command {
	var quizID int64
	var userID int64

	cmd := &cobra.Command{
		Use:   "result",
		Short: "Look up a past quiz result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quizID <= 0 {
				return fmt.Errorf("--quiz is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			creds := newCredentials(cfg)
			if userID <= 0 {
				userID, err = credentials.ResolveUserID(creds)
				if err != nil {
					return err
				}
			}
			catalog := newCatalog(cfg, creds)
			summary, err := catalog.Result(cmd.Context(), userID, quizID)
			if err != nil {
				return err
			}
			fmt.Printf("quiz %d, user %d: score %.0f, %d correct\n", quizID, userID, summary.Score, summary.CorrectCount)
			return nil
		},
	}

	cmd.Flags().Int64Var(&quizID, "quiz", 0, "quiz id")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (defaults to the logged-in user)")
	return cmd
}
