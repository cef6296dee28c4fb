package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the whole configuration",
		Long: `Check the configuration against the schema rules: path formats,
dangling deployment references, missing required values, and backend and
auth configuration for every deployment.

All findings are reported in one pass; the command fails when any exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.File().Load(cfg.StoreOptions()...)
			if err != nil {
				return err
			}

			findings := s.Validate(cmd.Context())
			if err := findings.AsError(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration for release %q is valid: %d path(s), %d deployment(s)\n",
				s.Release(), len(s.Paths()), len(s.Deployments()))
			return nil
		},
	}

	return cmd
}
