package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
	"github.com/systmms/helm-values-manager/internal/store"
	"github.com/systmms/helm-values-manager/pkg/backend"
)

func NewAddBackendCommand(cfg *config.Config) *cobra.Command {
	var (
		deployment    string
		backendConfig []string
	)

	cmd := &cobra.Command{
		Use:   "add-backend <type>",
		Short: "Attach a secret backend to a deployment",
		Long: `Attach a secret backend (aws, azure, gcp, git-secret) to a deployment.

Backend configuration is passed as repeated key=value pairs and is
validated before anything is stored.

Examples:
  helm-values-manager add-backend aws --deployment prod --backend-config region=eu-west-1
  helm-values-manager add-backend azure --deployment prod --backend-config vault_url=https://myvault.vault.azure.net
  helm-values-manager add-backend gcp --deployment prod --backend-config project_id=my-project
  helm-values-manager add-backend git-secret --deployment dev --backend-config store_dir=.secrets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseKeyValues(backendConfig, "--backend-config")
			if err != nil {
				return err
			}

			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.AttachBackend(deployment, store.BackendType(args[0]), parsed); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Attached %s backend to deployment %q", args[0], deployment)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")
	cmd.Flags().StringArrayVar(&backendConfig, "backend-config", nil, "Backend configuration as key=value (repeatable)")

	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}

func NewAddAuthCommand(cfg *config.Config) *cobra.Command {
	var (
		deployment string
		prefix     string
		path       string
		creds      []string
	)

	cmd := &cobra.Command{
		Use:   "add-auth <type>",
		Short: "Configure backend authentication for a deployment",
		Long: `Configure how the deployment's backend authenticates.

Auth types: no-auth, env, file, direct, managed-identity.
env reads credentials from environment variables under --prefix, file
reads them from --path, direct embeds them as --credentials key=value
pairs. The configuration is checked against the attached backend's
requirements before it is stored.

Examples:
  helm-values-manager add-auth env --deployment prod --prefix PROD_
  helm-values-manager add-auth file --deployment prod --path ~/.aws/credentials
  helm-values-manager add-auth direct --deployment dev --credentials access_key_id=AKIA... --credentials secret_access_key=...
  helm-values-manager add-auth managed-identity --deployment prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials, err := parseKeyValueStrings(creds, "--credentials")
			if err != nil {
				return err
			}

			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			auth := backend.AuthConfig{
				Type:        backend.AuthType(args[0]),
				Prefix:      prefix,
				Path:        path,
				Credentials: credentials,
			}
			if err := s.AttachAuth(cmd.Context(), deployment, auth); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Configured %s auth for deployment %q", args[0], deployment)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Environment variable prefix (env auth)")
	cmd.Flags().StringVar(&path, "path", "", "Credentials file path (file auth)")
	cmd.Flags().StringArrayVar(&creds, "credentials", nil, "Credential as key=value (direct auth, repeatable)")

	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}
