package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"VoyageBot/internal/clock"
	"VoyageBot/internal/recorder"
)

// Housekeeper runs background maintenance on cron schedules.
type Housekeeper struct {
	Cron      *cron.Cron
	Recorder  recorder.Recorder
	Notifier  Notifier
	Retention time.Duration
	Ctx       context.Context

	clock clock.Clock
	log   zerolog.Logger
}

// NewHousekeeper creates a Housekeeper. A nil notifier disables the digest.
func NewHousekeeper(ctx context.Context, rec recorder.Recorder, n Notifier, retention time.Duration, clk clock.Clock, log zerolog.Logger) *Housekeeper {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Housekeeper{
		Cron:      cron.New(cron.WithSeconds()),
		Recorder:  rec,
		Notifier:  n,
		Retention: retention,
		Ctx:       ctx,
		clock:     clk,
		log:       log,
	}
}

// RegisterAll registers the prune and digest tasks. Empty specs are skipped.
func (h *Housekeeper) RegisterAll(pruneCron, reportCron string) error {
	if pruneCron != "" && h.Retention > 0 {
		if _, err := h.Cron.AddFunc(pruneCron, h.pruneTask); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	if reportCron != "" && h.Notifier != nil {
		if _, err := h.Cron.AddFunc(reportCron, h.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (h *Housekeeper) Start() {
	h.Cron.Start()
	h.log.Info().Int("tasks", len(h.Cron.Entries())).Msg("housekeeping started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (h *Housekeeper) Stop() {
	<-h.Cron.Stop().Done()
	h.log.Info().Msg("housekeeping stopped")
}

// Prune deletes history older than the retention window.
func (h *Housekeeper) Prune() (int64, error) {
	return h.Recorder.Prune(h.clock.Now().Add(-h.Retention))
}

// Digest sends the last 24h summary to the notifier.
func (h *Housekeeper) Digest() error {
	sum, err := h.Recorder.Summary(h.clock.Now().Add(-24 * time.Hour))
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	return h.Notifier.SendDigest(h.Ctx, sum)
}

func (h *Housekeeper) pruneTask() {
	n, err := h.Prune()
	if err != nil {
		h.log.Error().Err(err).Msg("prune history")
		return
	}
	h.log.Info().Int64("rows", n).Msg("pruned history")
}

func (h *Housekeeper) digestTask() {
	if err := h.Digest(); err != nil {
		h.log.Error().Err(err).Msg("send digest")
	}
}
