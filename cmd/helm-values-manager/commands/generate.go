package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/helm-values-manager/internal/config"
)

func NewGenerateCommand(cfg *config.Config) *cobra.Command {
	var (
		deployment string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the values YAML for a deployment",
		Long: `Render the nested values YAML for one deployment.

Every sensitive value is resolved through the deployment's secret
backend; the output is suitable for 'helm install -f -'.

Examples:
  helm-values-manager generate --deployment prod
  helm-values-manager generate --deployment prod --out values-prod.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.File().Load(cfg.StoreOptions()...)
			if err != nil {
				return err
			}

			values, err := s.Generate(cmd.Context(), deployment)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(yamlValue(values))
			if err != nil {
				return fmt.Errorf("failed to render values YAML: %w", err)
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				cfg.Logger.Info("Wrote values for deployment %q to %s", deployment, outFile)
				return nil
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write YAML to a file instead of stdout")

	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}

// yamlValue rewrites json.Number leaves so numbers render unquoted.
func yamlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = yamlValue(child)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
