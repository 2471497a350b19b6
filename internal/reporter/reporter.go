// Package reporter is the operator-facing event sink for a provisioning run.
//
// The batch engine never writes to the terminal or the log file directly; it
// emits events through the Reporter capability so tests can capture them
// in-memory and verify ordering.
package reporter

// ProgressUpdate describes one update of the ephemeral progress indicator.
type ProgressUpdate struct {
	// Activity names the overall operation, e.g. "Provisioning users".
	Activity string

	// Status is the short state line shown under the activity.
	Status string

	// Percent is the completion percentage, 0-100.
	Percent float64

	// Operation names the current per-record step, e.g. a user being created.
	Operation string

	// Completed marks the final update; the indicator is finished after it.
	Completed bool
}

// Reporter receives every observable event of a provisioning run: one log
// event per record, one status line per record, and progress updates.
type Reporter interface {
	// Info records a success-path log event on the persistent log trail.
	Info(msg string)

	// Error records a failure log event on the persistent log trail.
	Error(msg string)

	// StatusLine prints a plain line to the operator's output stream.
	StatusLine(line string)

	// Progress updates the operator-visible progress indicator.
	Progress(update ProgressUpdate)
}
