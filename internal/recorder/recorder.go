package recorder

import (
	"time"

	"VoyageBot/internal/model"
)

// Summary aggregates run history over a time window.
type Summary struct {
	Since    time.Time
	Cycles   int
	Runs     int
	Done     int
	Aborted  int
	TimedOut int
	CheckIns int

	FailedCheckIns int
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordAccountRun(cycleID string, res *model.RunResult) error
	RecordCycle(rep *model.CycleReport) error
	Summary(since time.Time) (*Summary, error)
	// Prune deletes history recorded before the cutoff and returns the number of rows removed.
	Prune(before time.Time) (int64, error)
	Close() error
}
