package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provisr/provisr/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing the
// ~/.provisr/config.yaml configuration file with default values.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values at
~/.provisr/config.yaml (or $PROVISR_HOME/config.yaml). Fill in the graph
section with your tenant and application IDs before the first run; the
client secret is read from the PROVISR_CLIENT_SECRET environment variable
and never stored in the file.`,
		Example: `  # Create the default configuration
  provisr config init

  # Create configuration, overwriting existing
  provisr config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			if !force {
				_, err := os.Stat(configPath)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", configPath, err)
				}
			}

			cfg := config.Defaults()
			cfg.SetConfigPath(configPath)
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			cmd.Printf("Configuration initialized at %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}
