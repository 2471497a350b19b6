package cli

import (
	"github.com/spf13/cobra"

	"github.com/provisr/provisr/internal/config"
	"github.com/provisr/provisr/internal/logging"
)

// setupLogging configures logging based on config file, environment, and CLI
// flags, and returns the handle the command must close on exit.
func setupLogging(cmd *cobra.Command, cfg *config.Config) *logging.LogPathResult {
	loggingCfg := cfg.Logging

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}

	output := logging.OutputStderr
	if loggingCfg.File != "" {
		output = logging.OutputFile
	}

	result := logging.NewLoggerWithPath(logging.Config{
		Level:  loggingCfg.Level,
		Format: loggingCfg.Format,
		Output: output,
		File:   loggingCfg.File,
	})
	logger = logging.ComponentLogger(result.Logger, "cli")
	logger.Debug().Str("command", cmd.Name()).Msg("command started")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	return &result
}
