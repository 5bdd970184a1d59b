// Package scheduler drives accounts through repeated cycles with bounded concurrency.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VoyageBot/internal/clock"
	"VoyageBot/internal/model"
	"VoyageBot/internal/notifier"
	"VoyageBot/internal/recorder"
	"VoyageBot/internal/worker"
)

const (
	DefaultAccountTimeout = 24 * time.Hour
	DefaultCycleBuffer    = 5 * time.Second
)

// Runner executes one account workflow and always returns a terminal result.
type Runner interface {
	Run(ctx context.Context) model.RunResult
}

// Factory builds a fresh Runner for an account at dispatch time.
type Factory func(acc *model.Account) Runner

// Notifier receives cycle summaries and digests. Nil disables notifications.
type Notifier interface {
	SendCycleReport(ctx context.Context, rep *model.CycleReport) error
	SendDigest(ctx context.Context, s *recorder.Summary) error
}

// Options tune the cycle loop.
type Options struct {
	Workers        int
	StartDelayMin  time.Duration
	StartDelayMax  time.Duration
	AccountTimeout time.Duration
	CycleBuffer    time.Duration
	Cooldown       time.Duration
	UseProxy       bool
}

// Scheduler owns the account list and runs it cycle after cycle.
type Scheduler struct {
	accounts []*model.Account
	factory  Factory
	opts     Options
	rec      recorder.Recorder
	notify   Notifier
	clock    clock.Clock
	log      zerolog.Logger
	intn     func(int) int

	mu     sync.Mutex
	cycles int
	last   *model.CycleReport
}

// New creates a Scheduler. Zero options fall back to the defaults above.
func New(accounts []*model.Account, factory Factory, opts Options, rec recorder.Recorder, n Notifier, clk clock.Clock, log zerolog.Logger) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.AccountTimeout <= 0 {
		opts.AccountTimeout = DefaultAccountTimeout
	}
	if opts.CycleBuffer < 0 {
		opts.CycleBuffer = DefaultCycleBuffer
	}
	if opts.StartDelayMax < opts.StartDelayMin {
		opts.StartDelayMax = opts.StartDelayMin
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		accounts: accounts,
		factory:  factory,
		opts:     opts,
		rec:      rec,
		notify:   n,
		clock:    clk,
		log:      log,
		intn:     rand.IntN,
	}
}

// Run loops over cycles until ctx is cancelled. Every cycle is followed by the
// buffer and cooldown sleeps, whatever its outcome.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Int("accounts", len(s.accounts)).Int("workers", s.opts.Workers).Msg("scheduler started")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		rep := s.RunCycle(ctx)
		s.finish(ctx, rep)

		if err := s.clock.Sleep(ctx, s.opts.CycleBuffer); err != nil {
			return nil
		}
		s.log.Info().Msgf("completed all accounts | waiting %d minutes to new cycle", int(s.opts.Cooldown/time.Minute))
		if err := s.clock.Sleep(ctx, s.opts.Cooldown); err != nil {
			return nil
		}
	}
}

// RunCycle dispatches every account through at most Workers goroutines and
// waits for all of them (or their timeouts) before returning.
func (s *Scheduler) RunCycle(ctx context.Context) *model.CycleReport {
	s.mu.Lock()
	s.cycles++
	number := s.cycles
	s.mu.Unlock()

	rep := &model.CycleReport{
		ID:        uuid.NewString(),
		Number:    number,
		StartedAt: s.clock.Now(),
		Results:   make([]model.RunResult, len(s.accounts)),
	}
	log := s.log.With().Str("cycle", rep.ID).Int("cycle_no", number).Logger()
	log.Info().Int("accounts", len(s.accounts)).Msg("cycle started")

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(s.opts.Workers, len(s.accounts)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := s.runOne(ctx, s.accounts[i])
				rep.Results[i] = res
				if err := s.rec.RecordAccountRun(rep.ID, &res); err != nil {
					alog := s.accountLog(s.accounts[i], res.ProxyIP)
					alog.Error().Err(err).
						Str("cycle", rep.ID).Msg("record account run")
				}
			}
		}()
	}
	for i := range s.accounts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	rep.FinishedAt = s.clock.Now()
	done, aborted, timedOut := rep.Counts()
	log.Info().Int("done", done).Int("aborted", aborted).Int("timed_out", timedOut).
		Int("check_ins", rep.CheckIns()).Msg("cycle finished")
	return rep
}

// runOne races the jitter plus the account workflow against the per-account
// timeout. A run that outlives it is abandoned and its result discarded.
func (s *Scheduler) runOne(ctx context.Context, acc *model.Account) model.RunResult {
	start := s.clock.Now()
	base := model.RunResult{Index: acc.Index, Subject: acc.Subject, ProxyIP: acc.ProxyIP, StartedAt: start}
	if err := ctx.Err(); err != nil {
		return abortedResult(base, model.StateInit, "cancelled: "+err.Error())
	}

	alog := s.accountLog(acc, base.ProxyIP)
	actx, cancel := context.WithTimeout(ctx, s.opts.AccountTimeout)
	defer cancel()

	out := make(chan model.RunResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				alog.Error().Interface("panic", r).Msg("account run crashed")
				out <- abortedResult(base, model.StateInit, fmt.Sprintf("unexpected error: %v", r))
			}
		}()
		delay := s.jitter()
		alog.Info().Msgf("starting in %d seconds", int(delay/time.Second))
		if err := s.clock.Sleep(actx, delay); err != nil {
			out <- abortedResult(base, model.StateInit, "cancelled: "+err.Error())
			return
		}
		out <- s.factory(acc).Run(actx)
	}()

	var res model.RunResult
	select {
	case res = <-out:
	case <-actx.Done():
		res = abortedResult(base, model.StateInit, "cancelled")
	}

	if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && res.State != model.StateDone {
		alog.Warn().Dur("timeout", s.opts.AccountTimeout).Msg("account run timed out, abandoned")
		res = abortedResult(base, res.FailedAt, fmt.Sprintf("timed out after %s", s.opts.AccountTimeout))
		res.TimedOut = true
	}
	res.Duration = s.clock.Now().Sub(start)
	return res
}

// accountLog tags lines with the account and the egress IP known at dispatch.
func (s *Scheduler) accountLog(acc *model.Account, ip string) zerolog.Logger {
	return s.log.With().
		Int("account", acc.Number()).
		Str("sub", acc.Subject).
		Str("ip", worker.IPLabel(s.opts.UseProxy, ip)).
		Logger()
}

func (s *Scheduler) jitter() time.Duration {
	lo, hi := s.opts.StartDelayMin/time.Second, s.opts.StartDelayMax/time.Second
	if hi <= lo {
		return lo * time.Second
	}
	return (lo + time.Duration(s.intn(int(hi-lo)+1))) * time.Second
}

func (s *Scheduler) finish(ctx context.Context, rep *model.CycleReport) {
	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	if err := s.rec.RecordCycle(rep); err != nil {
		s.log.Error().Err(err).Msg("record cycle")
	}
	if s.notify != nil {
		if err := s.notify.SendCycleReport(ctx, rep); err != nil {
			s.log.Error().Err(err).Msg("send cycle report")
		}
	}
}

// LastReport returns the most recent finished cycle, or nil before the first one.
func (s *Scheduler) LastReport() *model.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		rep := s.LastReport()
		if rep == nil {
			return "No cycle has finished yet."
		}
		return notifier.FormatCycleReport(rep)
	case "/summary":
		sum, err := s.rec.Summary(s.clock.Now().Add(-24 * time.Hour))
		if err != nil {
			return "Cannot read history: " + err.Error()
		}
		return notifier.FormatDigest(sum)
	default:
		return "Available commands:\n• /status\n• /summary"
	}
}

func abortedResult(base model.RunResult, at model.State, reason string) model.RunResult {
	base.State = model.StateAborted
	base.FailedAt = at
	base.Reason = reason
	return base
}
