package ui

import (
	"sync"
	"time"
)

// Tracker counts item outcomes over a run
type Tracker struct {
	mu        sync.Mutex
	total     int
	saved     int
	failed    int
	startTime time.Time
}

// NewTracker starts tracking a run of total items
func NewTracker(total int) *Tracker {
	return &Tracker{total: total, startTime: time.Now()}
}

// RecordSaved counts one saved item
func (t *Tracker) RecordSaved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved++
}

// RecordFailed counts one failed item
func (t *Tracker) RecordFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

func (t *Tracker) Saved() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saved
}

func (t *Tracker) Failed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Done reports whether every item has an outcome
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saved+t.failed >= t.total
}

// Elapsed returns the time since tracking started
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Rate returns processed items per minute
func (t *Tracker) Rate() float64 {
	minutes := t.Elapsed().Minutes()
	if minutes == 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.saved+t.failed) / minutes
}
