// Package cli wires the provisr command tree.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/provisr/provisr/internal/config"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the provisr CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "provisr",
		Short:   "Bulk user provisioning for cloud directories",
		Long:    "provisr: create directory accounts in bulk from a tabular onboarding file",
		Version: ver,
		Example: rootCmdExample,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (default ~/.provisr/config.yaml)")
	cmd.AddCommand(NewCreateCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Create directory accounts from an onboarding file
  provisr create users.csv

  # Same, with debug logging to the console
  provisr create users.csv --debug

  # Initialize configuration
  provisr config init`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd())
	return cmd
}

// loadConfig resolves the effective configuration for a command invocation:
// the --config flag wins over the default config file, and environment
// overrides are applied last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path != "" {
		loaded, err := config.LoadFromPath(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.New()
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}
