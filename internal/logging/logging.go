// Package logging builds the zerolog loggers used across provisr.
//
// The batch log doubles as the operator's audit trail: every record outcome
// is appended to a persistent log file and mirrored to the console. When the
// file cannot be opened the logger falls back to stderr-only output so a bad
// log path never blocks a provisioning run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Output destinations understood by Config.Output.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Format values understood by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config describes how the run logger should be constructed.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Unparsable
	// values fall back to info.
	Level string

	// Format selects console (human-readable) or json line output.
	Format string

	// Output selects "stderr" or "file". File output still mirrors every
	// event to the console so the operator sees the batch as it runs.
	Output string

	// File is the log file path when Output is "file".
	File string

	// Caller adds caller annotation to each event.
	Caller bool
}

// LogPathResult carries the constructed logger together with where its file
// sink ended up, so the CLI can tell the operator and close the handle on
// exit.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any.
func (r *LogPathResult) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLoggerWithPath constructs the run logger described by cfg.
//
// File output appends to cfg.File and mirrors events to a console writer on
// stderr. If the file cannot be opened, the logger silently degrades to
// stderr-only and the result records the fallback reason for the CLI to
// surface.
func NewLoggerWithPath(cfg Config) LogPathResult {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	console := consoleWriter(cfg.Format)
	writers := []io.Writer{console}

	result := LogPathResult{}

	if cfg.Output == OutputFile && cfg.File != "" {
		file, openErr := openLogFile(cfg.File)
		if openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = openErr.Error()
		} else {
			result.UsingFile = true
			result.FilePath = cfg.File
			result.file = file
			writers = append(writers, file)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	result.Logger = ctx.Logger()

	return result
}

// consoleWriter returns the operator-facing writer for the given format.
// JSON format writes raw zerolog lines; anything else gets the
// human-readable console writer.
func consoleWriter(format string) io.Writer {
	if format == FormatJSON {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// openLogFile opens path for appending, creating parent directories as
// needed. The file is append-only from provisr's point of view; nothing in
// the codebase ever truncates it.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create log directory %q: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return file, nil
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// PrintLogPathMessage tells the operator where the persistent log lives.
func PrintLogPathMessage(w io.Writer, path string) {
	fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the operator the log file could not be used.
func PrintFallbackWarning(w io.Writer, reason string) {
	fmt.Fprintf(w, "Warning: log file unavailable, logging to stderr only: %s\n", reason)
}
