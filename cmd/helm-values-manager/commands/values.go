package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/internal/config"
	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
)

func NewSetValueCommand(cfg *config.Config) *cobra.Command {
	var (
		path       string
		deployment string
		value      string
		fromStdin  bool
	)

	cmd := &cobra.Command{
		Use:   "set-value",
		Short: "Set a value for a path in a deployment",
		Long: `Set the value of a configuration path for one deployment.

Values that parse as a JSON scalar keep their type (number, boolean,
null); anything else is stored as a string. Sensitive paths go to the
deployment's secret backend, which must be attached first.

Use --stdin for sensitive values so they never appear in shell history
or process listings.

Examples:
  helm-values-manager set-value --path app.replicas --deployment dev --value 3
  echo -n "$DB_PASSWORD" | helm-values-manager set-value --path app.db.password --deployment prod --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				if cmd.Flags().Changed("value") {
					return hvmerrors.UserError{
						Message:    "--value and --stdin are mutually exclusive",
						Suggestion: "Pass the value one way or the other",
					}
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read value from stdin: %w", err)
				}
				value = strings.TrimSuffix(string(data), "\n")
			} else if !cmd.Flags().Changed("value") {
				return hvmerrors.UserError{
					Message:    "a value is required",
					Suggestion: "Use --value <v> or pipe the value with --stdin",
				}
			}

			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.SetValue(cmd.Context(), path, deployment, coerceScalar(value)); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Set value for %q in deployment %q", path, deployment)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Configuration path (required)")
	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Value to set")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from stdin")

	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}

// coerceScalar preserves JSON scalar types for flag input. Non-JSON input
// and JSON strings both come back as plain strings.
func coerceScalar(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); err != io.EOF {
		// Trailing content, e.g. "3 replicas": not a single scalar.
		return raw
	}
	switch v.(type) {
	case json.Number, bool, nil:
		return v
	case string:
		return v
	default:
		// Arrays and objects are not scalars; keep the raw text and let
		// the store reject it with its own error.
		return raw
	}
}

func NewGetValueCommand(cfg *config.Config) *cobra.Command {
	var (
		path       string
		deployment string
		resolve    bool
	)

	cmd := &cobra.Command{
		Use:   "get-value",
		Short: "Get a value for a path in a deployment",
		Long: `Print the value of a configuration path for one deployment.

Sensitive values print as their secret reference by default; --resolve
fetches the actual secret from the backend. Only the raw value is
printed, making the command suitable for scripting.

Examples:
  helm-values-manager get-value --path app.replicas --deployment dev
  helm-values-manager get-value --path app.db.password --deployment prod --resolve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.File().Load(cfg.StoreOptions()...)
			if err != nil {
				return err
			}

			v, err := s.GetValue(cmd.Context(), path, deployment, resolve)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Configuration path (required)")
	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve secret references through the backend")

	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}

func NewRemoveValueCommand(cfg *config.Config) *cobra.Command {
	var (
		path       string
		deployment string
	)

	cmd := &cobra.Command{
		Use:   "remove-value",
		Short: "Remove a value for a path in a deployment",
		Long: `Remove the value of a configuration path for one deployment.

Sensitive values are also deleted from the deployment's secret backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, s, err := cfg.LoadStore()
			if err != nil {
				return err
			}
			defer file.Unlock()

			if err := s.RemoveValue(cmd.Context(), path, deployment); err != nil {
				return err
			}
			if err := file.Save(s); err != nil {
				return err
			}

			cfg.Logger.Info("Removed value for %q in deployment %q", path, deployment)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Configuration path (required)")
	cmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment name (required)")

	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("deployment")

	return cmd
}
