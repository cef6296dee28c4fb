package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/backends"
	"github.com/systmms/helm-values-manager/internal/config"
)

func NewBackendsCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List available secret backends",
		Long: `Display information about available secret backends.

Shows built-in backend types and, when a configuration file is present,
the backend attached to each deployment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := backends.NewRegistry(backends.WithLogger(cfg.Logger))
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Built-in Backend Types:")
			fmt.Fprintln(out, "======================")

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TYPE\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "----\t-----------\n")

			for _, backendType := range registry.Supported() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", backendType, getBackendDescription(backendType))
			}
			_ = w.Flush()

			// Show configured deployments if a config file is available
			if s, err := cfg.File().Load(cfg.StoreOptions()...); err == nil {
				fmt.Fprintln(out, "\nConfigured Deployments:")
				fmt.Fprintln(out, "======================")

				deployments := s.Deployments()
				if len(deployments) == 0 {
					fmt.Fprintln(out, "No deployments configured")
				} else {
					w2 := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					_, _ = fmt.Fprintf(w2, "DEPLOYMENT\tBACKEND\tAUTH\n")
					_, _ = fmt.Fprintf(w2, "----------\t-------\t----\n")

					for _, dep := range deployments {
						_, _ = fmt.Fprintf(w2, "%s\t%s\t%s\n", dep.Name, dep.Backend, dep.Auth.Type)
					}
					_ = w2.Flush()
				}
			}

			if verbose {
				fmt.Fprintln(out, "\nBackend Details:")
				fmt.Fprintln(out, "===============")
				for _, backendType := range registry.Supported() {
					fmt.Fprintf(out, "\n%s:\n", backendType)
					for _, detail := range getBackendDetails(backendType) {
						fmt.Fprintf(out, "  - %s\n", detail)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed backend information")

	return cmd
}

func getBackendDescription(backendType string) string {
	switch backendType {
	case "aws":
		return "AWS Secrets Manager or SSM Parameter Store"
	case "azure":
		return "Azure Key Vault secrets"
	case "gcp":
		return "Google Cloud Secret Manager"
	case "git-secret":
		return "GPG-encrypted files in the repository (git-secret style)"
	default:
		return "No description available"
	}
}

func getBackendDetails(backendType string) []string {
	switch backendType {
	case "aws":
		return []string{
			"backend-config: service (secretsmanager|ssm), region, endpoint",
			"auth: direct (access_key_id, secret_access_key), env, file, managed-identity, no-auth",
			"secret names map ':' to '/'",
		}
	case "azure":
		return []string{
			"backend-config: vault_url (required, https)",
			"auth: direct (tenant_id, client_id, client_secret), env, file, managed-identity, no-auth",
			"secret names escape '-' as '--', '.' as '-p', ':' as '-c', '_' as '-u'",
		}
	case "gcp":
		return []string{
			"backend-config: project_id (required)",
			"auth: direct (service_account_json), env, file, no-auth (application default credentials)",
			"secret ids escape '-' as '--', '.' as '-p', ':' as '-c'",
		}
	case "git-secret":
		return []string{
			"backend-config: store_dir (default .git-secrets), gpg_key",
			"auth: env (prefix for GPG_KEY), no-auth",
			"requires gpg on PATH; values are encrypted per deployment directory",
		}
	default:
		return []string{"No details available"}
	}
}
