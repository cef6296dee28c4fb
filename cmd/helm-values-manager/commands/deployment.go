package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
)

func NewAddDeploymentCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-deployment <name>",
		Short: "Add a new deployment configuration",
		Long: `Add a named deployment (e.g., 'dev', 'prod').

New deployments start without a secret backend; attach one with
'add-backend' before setting sensitive values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.AddDeployment(args[0]); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Added deployment %q", args[0])
			return nil
		},
	}

	return cmd
}

func NewRemoveDeploymentCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-deployment <name>",
		Short: "Remove a deployment configuration",
		Long: `Remove a deployment from the configuration.

Refused while any path still holds a value for the deployment; remove
those values first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.RemoveDeployment(args[0]); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Removed deployment %q", args[0])
			return nil
		},
	}

	return cmd
}
