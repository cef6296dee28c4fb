package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/internal/store"
)

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var (
		release string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new values manager configuration",
		Long:  "Create an empty configuration file for a Helm release.",
		RunE: func(cmd *cobra.Command, args []string) error {
			release = strings.TrimSpace(release)
			if release == "" {
				return hvmerrors.UserError{
					Message:    "release name must not be empty",
					Suggestion: "Use --release <name> with the Helm release this configuration is for",
				}
			}

			file := cfg.File()

			if file.Exists() && !force {
				return fmt.Errorf("%s already exists. Use --force to overwrite it", file.Path())
			}

			if err := file.Lock(); err != nil {
				return err
			}
			defer file.Unlock()

			s := store.New(release, cfg.StoreOptions()...)
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Created %s for release %q", file.Path(), release)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Run 'helm-values-manager add-value-config --path <path>' to define configuration paths")
			cfg.Logger.Info("  2. Run 'helm-values-manager add-deployment <name>' to add a deployment")
			cfg.Logger.Info("  3. Run 'helm-values-manager set-value --path <path> --deployment <name> --value <v>'")
			cfg.Logger.Info("  4. Run 'helm-values-manager generate --deployment <name>' to render values YAML")

			return nil
		},
	}

	cmd.Flags().StringVarP(&release, "release", "r", "", "Name of the Helm release (required)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	_ = cmd.MarkFlagRequired("release")

	return cmd
}
