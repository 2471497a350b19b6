package reporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Rendering constants.
const (
	progressBarWidth = 30
	clearLine        = "\r\x1b[2K"
)

// Styles for the interactive progress indicator.
var (
	activityStyle  = lipgloss.NewStyle().Bold(true)
	operationStyle = lipgloss.NewStyle().Faint(true)
)

// Console is the production Reporter: log events go to the zerolog logger
// (which mirrors the persistent log file to the console), status lines and
// the progress indicator go to the operator's output stream.
type Console struct {
	logger zerolog.Logger
	out    io.Writer
	bar    progress.Model

	// tty enables in-place progress redraws. Without a terminal each
	// update becomes its own plain line.
	tty bool

	// progressActive tracks whether the current terminal line holds a
	// progress render that must be cleared before other output.
	progressActive bool
}

// NewConsole builds a Console reporter writing status output to out.
func NewConsole(logger zerolog.Logger, out io.Writer, tty bool) *Console {
	return &Console{
		logger: logger,
		out:    out,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressBarWidth)),
		tty:    tty,
	}
}

// Info implements Reporter.
func (c *Console) Info(msg string) {
	c.clearProgress()
	c.logger.Info().Msg(msg)
}

// Error implements Reporter.
func (c *Console) Error(msg string) {
	c.clearProgress()
	c.logger.Error().Msg(msg)
}

// StatusLine implements Reporter.
func (c *Console) StatusLine(line string) {
	c.clearProgress()
	fmt.Fprintln(c.out, line)
}

// Progress implements Reporter.
func (c *Console) Progress(update ProgressUpdate) {
	if !c.tty {
		fmt.Fprintf(c.out, "%s: %6.2f%% - %s\n", update.Activity, update.Percent, update.Operation)
		return
	}

	fmt.Fprintf(c.out, "%s%s %s %s",
		clearLine,
		activityStyle.Render(update.Activity),
		c.bar.ViewAs(update.Percent/100),
		operationStyle.Render(update.Operation),
	)
	c.progressActive = true

	if update.Completed {
		fmt.Fprintln(c.out)
		c.progressActive = false
	}
}

// clearProgress erases an in-place progress render so log and status lines
// never interleave with it.
func (c *Console) clearProgress() {
	if c.tty && c.progressActive {
		fmt.Fprint(c.out, clearLine)
		c.progressActive = false
	}
}
