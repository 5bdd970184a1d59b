package model

import "time"

// State is a step of the per-account workflow.
type State string

const (
	StateInit       State = "INIT"
	StateProxyCheck State = "PROXY_CHECK"
	StateTokenCheck State = "TOKEN_CHECK"
	StateSync       State = "SYNC"
	StateOnboard    State = "ONBOARD"
	StateCheckIn    State = "CHECK_IN"
	StateDone       State = "DONE"
	StateAborted    State = "ABORTED"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// RunResult is the outcome of one account workflow in one cycle.
type RunResult struct {
	Index     int
	Subject   string
	ProxyIP   string
	State     State // StateDone or StateAborted
	FailedAt  State // last non-terminal state when aborted
	Reason    string
	CheckedIn bool // a check-in write succeeded
	Already   bool // the account had already checked in today
	// CheckInFailed marks a rejected check-in write; the run still ends DONE.
	CheckInFailed bool
	Reward        string
	Points        string
	TimedOut      bool
	StartedAt     time.Time
	Duration      time.Duration
}

// CycleReport summarises one full scheduler pass.
type CycleReport struct {
	ID         string
	Number     int
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []RunResult
}

// Counts splits the results into completed, aborted and timed out runs.
func (c *CycleReport) Counts() (done, aborted, timedOut int) {
	for _, r := range c.Results {
		switch {
		case r.TimedOut:
			timedOut++
		case r.State == StateDone:
			done++
		default:
			aborted++
		}
	}
	return done, aborted, timedOut
}

// FailedCheckIns counts rejected check-in writes in the cycle.
func (c *CycleReport) FailedCheckIns() int {
	n := 0
	for _, r := range c.Results {
		if r.CheckInFailed {
			n++
		}
	}
	return n
}

// CheckIns counts successful check-in writes in the cycle.
func (c *CycleReport) CheckIns() int {
	n := 0
	for _, r := range c.Results {
		if r.CheckedIn {
			n++
		}
	}
	return n
}
