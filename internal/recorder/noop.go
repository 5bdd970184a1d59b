package recorder

import (
	"time"

	"VoyageBot/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAccountRun(_ string, _ *model.RunResult) error { return nil }
func (n *NoopRecorder) RecordCycle(_ *model.CycleReport) error              { return nil }
func (n *NoopRecorder) Summary(since time.Time) (*Summary, error)           { return &Summary{Since: since}, nil }
func (n *NoopRecorder) Prune(_ time.Time) (int64, error)                    { return 0, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
