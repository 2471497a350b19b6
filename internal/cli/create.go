package cli

import (
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/provisr/provisr/internal/config"
	"github.com/provisr/provisr/internal/engine/provision"
	"github.com/provisr/provisr/internal/graph"
	"github.com/provisr/provisr/internal/logging"
	"github.com/provisr/provisr/internal/reporter"
	"github.com/provisr/provisr/internal/source"
)

// NewCreateCmd creates the create command: the bulk account-creation batch.
//
// The command exits zero when the batch runs to completion, regardless of
// how many individual records failed — partial failure is reported through
// the log trail and the summary counts, not the exit code. Only startup
// failures (authentication, unreadable input file) exit non-zero.
func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <users.csv>",
		Short: "Create directory accounts from an onboarding file",
		Long: `Reads a tabular onboarding file, authenticates against the directory
service once, and issues one account-creation request per row. Rows are
processed strictly in file order; a failing row is logged and skipped.`,
		Example: `  # Provision every user listed in the file
  provisr create new-hires.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0])
		},
	}
	return cmd
}

func runCreate(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logResult := setupLogging(cmd, cfg)
	defer logResult.Close()

	// Every batch gets its own run ID so interleaved runs can be told apart
	// in the shared append-only log.
	runID := ulid.Make().String()
	runLogger := logging.ComponentLogger(
		logResult.Logger.With().Str("run_id", runID).Logger(), "provision")

	ctx := cmd.Context()

	session, err := graph.Connect(ctx, graph.Config{
		BaseURL:      cfg.Graph.BaseURL,
		LoginURL:     cfg.Graph.LoginURL,
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: os.Getenv(config.EnvClientSecret),
	}, graph.ScopeUserReadWriteAll)
	if err != nil {
		runLogger.Error().Err(err).Msg("could not establish directory session")
		return err
	}
	runLogger.Debug().Time("token_expiry", session.Expiry()).Msg("directory session established")

	records, err := source.Parse(path)
	if err != nil {
		runLogger.Error().Err(err).Str("path", path).Msg("could not read onboarding file")
		return err
	}
	runLogger.Debug().Int("records", len(records)).Msg("onboarding file parsed")

	rep := reporter.NewConsole(runLogger, cmd.OutOrStdout(), isTerminal(os.Stdout))
	runner := provision.NewRunner(session, rep, provision.Config{
		ThrottleEvery: cfg.Throttle.Every,
		ThrottlePause: cfg.Throttle.Pause(),
	})

	summary, err := runner.Run(ctx, records)
	if err != nil {
		return err
	}

	runLogger.Debug().
		Int("total", summary.Total).
		Int("created", summary.Created).
		Int("failed", summary.Failed()).
		Msg("batch finished")
	return nil
}
