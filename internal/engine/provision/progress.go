package provision

import (
	"math"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Tracker tracks batch progress counters. Total is fixed at batch start;
// Created only ever increases, and only on a successful create. The tracker
// has a single sequential consumer, so no locking is needed.
type Tracker struct {
	total     int
	created   int
	startTime time.Time
}

// NewTracker creates a progress tracker for a batch of total records.
func NewTracker(total int) *Tracker {
	return &Tracker{
		total:     total,
		startTime: time.Now(),
	}
}

// RecordSuccess increments the created counter and returns its new value.
func (t *Tracker) RecordSuccess() int {
	t.created++
	return t.created
}

// Total returns the fixed batch size.
func (t *Tracker) Total() int {
	return t.total
}

// Created returns the number of successful creations so far.
func (t *Tracker) Created() int {
	return t.created
}

// Percent returns the completion percentage rounded to two decimal places.
func (t *Tracker) Percent() float64 {
	if t.total == 0 {
		return 0
	}
	pct := float64(t.created) / float64(t.total) * percentMultiplier
	return math.Round(pct*100) / 100
}

// Elapsed returns the time since the batch started.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.startTime)
}
