package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/provisr/provisr/internal/graph"
	"github.com/provisr/provisr/internal/reporter"
	"github.com/provisr/provisr/internal/source"
)

// ErrNoRecords is returned when Run is handed an empty record sequence.
var ErrNoRecords = errors.New("no user records to provision")

// activityLabel names the batch on the progress indicator.
const activityLabel = "Provisioning users"

// printer formats operator-facing counts.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// Creator submits one create-account request. Satisfied by *graph.Session;
// tests substitute in-memory doubles.
type Creator interface {
	CreateUser(ctx context.Context, user graph.UserRequest) error
}

// Summary is the final result of a batch run. Partial failure is the
// expected steady state: it is communicated through these counts and the
// per-record log trail, never through an error return.
type Summary struct {
	Total   int
	Created int
}

// Failed returns the number of records whose create attempt failed.
func (s Summary) Failed() int {
	return s.Total - s.Created
}

// Outcome is the terminal state of one record's create attempt. Succeeded
// and failed are both terminal and both lead unconditionally to the next
// record.
type Outcome struct {
	Record  source.UserRecord
	Created bool
	Err     error
}

// Config tunes the batch engine's throttling behaviour.
type Config struct {
	// ThrottleEvery pauses after this many successful creations. The count
	// is keyed on successes, not on records attempted, so a failing batch
	// never slows down. Zero disables throttling.
	ThrottleEvery int

	// ThrottlePause is the fixed pause duration.
	ThrottlePause time.Duration
}

// Runner drives an account-creation batch against the directory service.
type Runner struct {
	creator Creator
	rep     reporter.Reporter
	cfg     Config

	// sleep is swapped out by tests to observe throttle pauses.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewRunner builds a Runner. The creator must already be authenticated; the
// Runner never validates or refreshes the session it is handed.
func NewRunner(creator Creator, rep reporter.Reporter, cfg Config) *Runner {
	return &Runner{
		creator: creator,
		rep:     rep,
		cfg:     cfg,
		sleep:   sleepWithContext,
	}
}

// Run processes records in input order, one create attempt per record, and
// returns the batch summary. Per-record failures are reported and skipped;
// the only error Run itself returns is context cancellation, which stops the
// batch between records with no checkpoint.
func (r *Runner) Run(ctx context.Context, records []source.UserRecord) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoRecords
	}

	tracker := NewTracker(len(records))

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return r.summary(tracker), err
		}

		r.rep.Progress(reporter.ProgressUpdate{
			Activity:  activityLabel,
			Status:    fmt.Sprintf("%.2f%% complete", tracker.Percent()),
			Percent:   tracker.Percent(),
			Operation: "Creating user: " + record.DisplayName,
		})

		outcome := r.attempt(ctx, record)
		if outcome.Created {
			tracker.RecordSuccess()
			r.rep.Info(printer.Sprintf("Created user %s with UPN %s",
				record.DisplayName, record.UserPrincipalName))
		} else {
			r.rep.Error(printer.Sprintf("Failed to create user %s (%s): %v",
				record.DisplayName, record.UserPrincipalName, outcome.Err))
		}

		r.rep.StatusLine(printer.Sprintf("Created %d out of %d users",
			tracker.Created(), tracker.Total()))

		if outcome.Created && r.throttleDue(tracker.Created()) {
			if !r.sleep(ctx, r.cfg.ThrottlePause) {
				return r.summary(tracker), ctx.Err()
			}
		}
	}

	r.rep.Progress(reporter.ProgressUpdate{
		Activity:  activityLabel,
		Status:    "100.00% complete",
		Percent:   100,
		Operation: "Completed creating all users",
		Completed: true,
	})
	r.rep.Info(printer.Sprintf("Completed creating %d users out of %d users.",
		tracker.Created(), tracker.Total()))

	return r.summary(tracker), nil
}

// attempt performs the single fallible step for one record. Every error
// from the create call is equivalent here: auth expiry, duplicate principal
// name, invalid field, throttling and network faults all become a failed
// outcome.
func (r *Runner) attempt(ctx context.Context, record source.UserRecord) Outcome {
	err := r.creator.CreateUser(ctx, BuildUserRequest(record))
	return Outcome{
		Record:  record,
		Created: err == nil,
		Err:     err,
	}
}

// throttleDue reports whether the pacing pause should run after the given
// success count.
func (r *Runner) throttleDue(created int) bool {
	return r.cfg.ThrottleEvery > 0 && created%r.cfg.ThrottleEvery == 0
}

func (r *Runner) summary(tracker *Tracker) Summary {
	return Summary{
		Total:   tracker.Total(),
		Created: tracker.Created(),
	}
}

// BuildUserRequest converts an input record into the create-account payload.
// The spreadsheet password is marked for forced change at first sign-in.
func BuildUserRequest(record source.UserRecord) graph.UserRequest {
	return graph.UserRequest{
		AccountEnabled:    true,
		DisplayName:       record.DisplayName,
		MailNickname:      MailNickname(record.UserPrincipalName),
		UserPrincipalName: record.UserPrincipalName,
		PasswordProfile: graph.PasswordProfile{
			Password:    record.Password,
			ForceChange: true,
		},
		GivenName:      record.GivenName,
		Surname:        record.Surname,
		JobTitle:       record.JobTitle,
		Department:     record.Department,
		UsageLocation:  record.UsageLocation,
		OfficeLocation: record.OfficeLocation,
		City:           record.City,
		State:          record.State,
		Country:        record.Country,
		PostalCode:     record.PostalCode,
	}
}

// MailNickname derives the short local identifier from a principal name:
// everything before the first "@". A value with no "@" passes through whole
// and is left for the directory service to accept or reject.
func MailNickname(userPrincipalName string) string {
	nickname, _, _ := strings.Cut(userPrincipalName, "@")
	return nickname
}

// sleepWithContext pauses for d unless the context is cancelled first. It
// reports whether the full pause elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
