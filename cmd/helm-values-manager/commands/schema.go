package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
	"github.com/systmms/helm-values-manager/internal/store"
)

func NewAddValueConfigCommand(cfg *config.Config) *cobra.Command {
	var (
		path        string
		description string
		required    bool
		sensitive   bool
	)

	cmd := &cobra.Command{
		Use:   "add-value-config",
		Short: "Add a new value configuration with metadata",
		Long: `Define a configuration path in the schema.

The path uses dot notation and becomes a nested key in the generated
values YAML. Sensitive paths are stored in the deployment's secret
backend instead of the configuration file.

Examples:
  helm-values-manager add-value-config --path app.replicas --description "replica count" --required
  helm-values-manager add-value-config --path app.db.password --sensitive --required`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			metadata := store.Metadata{
				Description: description,
				Required:    required,
				Sensitive:   sensitive,
			}
			if err := s.AddPath(path, metadata); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Added value config %q", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Configuration path (e.g., 'app.replicas') (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of what this configuration does")
	cmd.Flags().BoolVarP(&required, "required", "r", false, "Whether this configuration is required")
	cmd.Flags().BoolVarP(&sensitive, "sensitive", "s", false, "Whether this configuration contains sensitive data")

	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func NewRemoveValueConfigCommand(cfg *config.Config) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "remove-value-config",
		Short: "Remove a value configuration and its values",
		Long: `Remove a configuration path from the schema.

Refused while any deployment still holds a value for the path; --force
removes the values first, including secrets held in backends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.RemovePath(cmd.Context(), path, force); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Removed value config %q", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Configuration path to remove (required)")
	cmd.Flags().BoolVar(&force, "force", false, "Also remove any values set for this path")

	_ = cmd.MarkFlagRequired("path")

	return cmd
}
