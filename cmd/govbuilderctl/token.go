package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/govbuilder/engine/internal/api/middleware"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

func newTokenCmd(a *app) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the local API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.APISecret == "" {
				return appErr.New(appErr.CodeConfiguration, "API_SECRET is not set; the API accepts unauthenticated requests")
			}
			token, err := middleware.IssueToken([]byte(a.cfg.APISecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "govbuilderctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
