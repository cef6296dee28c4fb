package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/helm-values-manager/cmd/helm-values-manager/commands"
	"github.com/systmms/helm-values-manager/internal/config"
	"github.com/systmms/helm-values-manager/internal/logging"
	"github.com/systmms/helm-values-manager/internal/persist"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "helm-values-manager",
		Short: "Manage Helm values and secrets across deployments",
		Long: `helm-values-manager keeps one schema of configuration paths for a Helm
release and per-deployment values for each path, routing sensitive values
to secret backends (AWS, Azure, GCP, git-secret) instead of the config file.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", persist.DefaultConfigFile, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewAddValueConfigCommand(cfg),
		commands.NewRemoveValueConfigCommand(cfg),
		commands.NewAddDeploymentCommand(cfg),
		commands.NewRemoveDeploymentCommand(cfg),
		commands.NewAddBackendCommand(cfg),
		commands.NewAddAuthCommand(cfg),
		commands.NewSetValueCommand(cfg),
		commands.NewGetValueCommand(cfg),
		commands.NewRemoveValueCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewGenerateCommand(cfg),
		commands.NewBackendsCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
