package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"VoyageBot/internal/clock"
	"VoyageBot/internal/config"
	"VoyageBot/internal/fingerprint"
	"VoyageBot/internal/loader"
	"VoyageBot/internal/model"
	"VoyageBot/internal/notifier"
	"VoyageBot/internal/proxy"
	"VoyageBot/internal/recorder"
	"VoyageBot/internal/scheduler"
	"VoyageBot/internal/token"
	"VoyageBot/internal/worker"
)

// app is the wired process: accounts, scheduler and background services.
type app struct {
	log      zerolog.Logger
	accounts []*model.Account
	store    *fingerprint.Store
	rec      recorder.Recorder
	tn       *notifier.TelegramNotifier
	sched    *scheduler.Scheduler
	hk       *scheduler.Housekeeper
}

// newApp loads the inputs and builds every component. Configuration errors are
// returned as *scheduler.ConfigError.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	credentials, err := loader.Lines(cfg.Files.Tokens)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	proxies, err := loader.Lines(cfg.Files.Proxies)
	if err != nil {
		return nil, fmt.Errorf("load proxies: %w", err)
	}
	refCodes, err := loader.Lines(cfg.Files.RefCodes)
	if err != nil {
		return nil, fmt.Errorf("load referral codes: %w", err)
	}

	if err := scheduler.Preflight(credentials, proxies, cfg.Proxy.Enabled); err != nil {
		return nil, err
	}
	if !cfg.Proxy.Enabled {
		log.Warn().Msg("You are running bot without proxies!!!")
	}

	// Accounts and fingerprints
	accounts := scheduler.BuildAccounts(credentials, proxies, cfg.Proxy.Enabled, log)
	if err := scheduler.RequireAccounts(accounts, credentials, proxies, cfg.Proxy.Enabled); err != nil {
		return nil, err
	}
	store, err := fingerprint.Open(cfg.Files.Fingerprints, nil)
	if err != nil {
		return nil, fmt.Errorf("open fingerprint cache: %w", err)
	}
	created := 0
	for _, acc := range accounts {
		_, isNew, err := store.Ensure(acc.Subject)
		if err != nil {
			log.Warn().Err(err).Int("account", acc.Number()).Msg("persist fingerprint")
		}
		if isNew {
			created++
		}
	}
	log.Info().Int("accounts", len(accounts)).Int("dropped", len(credentials)-len(accounts)).
		Int("new_fingerprints", created).Msg("accounts loaded")

	a := &app{log: log, accounts: accounts, store: store}

	// Init recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			a.rec = recorder.NewNoopRecorder()
		} else {
			a.rec = sr
		}
	} else {
		a.rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var note scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		a.tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "", log)
		note = a.tn
	}

	clk := clock.Real{}
	deps := worker.Deps{
		Config:       workerConfig(cfg),
		Resolver:     proxy.NewBinder(cfg.Proxy.IPCheckURL, cfg.RequestTimeout(), cfg.API.InsecureSkipVerify),
		Validator:    token.NewValidator(clk.Now),
		Fingerprints: store,
		RefCodes:     refCodes,
		Clock:        clk,
		Logger:       log,
	}
	lo, hi := cfg.StartDelay()
	a.sched = scheduler.New(accounts, func(acc *model.Account) scheduler.Runner {
		return worker.New(acc, deps)
	}, scheduler.Options{
		Workers:        cfg.Workers(),
		StartDelayMin:  lo,
		StartDelayMax:  hi,
		AccountTimeout: cfg.AccountTimeout(),
		CycleBuffer:    cfg.CycleBuffer(),
		Cooldown:       cfg.Cooldown(),
		UseProxy:       cfg.Proxy.Enabled,
	}, a.rec, note, clk, log)

	// Housekeeping cron
	a.hk = scheduler.NewHousekeeper(ctx, a.rec, note, cfg.Retention(), clk, log)
	if err := a.hk.RegisterAll(cfg.Housekeeping.PruneCron, cfg.Housekeeping.ReportCron); err != nil {
		a.rec.Close()
		return nil, fmt.Errorf("register housekeeping tasks: %w", err)
	}
	return a, nil
}

// run starts the background services and blocks until ctx is cancelled and the
// current cycle has wound down.
func (a *app) run(ctx context.Context) {
	a.hk.Start()
	defer a.hk.Stop()

	if a.tn != nil {
		go a.tn.StartPolling(ctx, a.sched.HandleCommand)
		a.log.Info().Msg("telegram polling started")
	}
	if err := a.sched.Run(ctx); err != nil {
		a.log.Error().Err(err).Msg("scheduler stopped")
	}
}

func (a *app) close() {
	if err := a.rec.Close(); err != nil {
		a.log.Error().Err(err).Msg("close recorder")
	}
}

func workerConfig(cfg *config.Config) worker.Config {
	ep := worker.DefaultEndpoints()
	e := cfg.API.Endpoints
	if e.Profile != "" {
		ep.Profile = e.Profile
	}
	if e.Points != "" {
		ep.Points = e.Points
	}
	if e.CheckinStatus != "" {
		ep.CheckinStatus = e.CheckinStatus
	}
	if e.Checkin != "" {
		ep.Checkin = e.Checkin
	}
	if e.Onboard != "" {
		ep.Onboard = e.Onboard
	}
	return worker.Config{
		BaseURL:            cfg.API.BaseURL,
		Origin:             cfg.API.Origin,
		Endpoints:          ep,
		UseProxy:           cfg.Proxy.Enabled,
		DefaultRefCode:     cfg.Referral.DefaultCode,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		MaxRetries:         cfg.Client.MaxRetries,
		RetryDelay:         cfg.RetryDelay(),
		RequestTimeout:     cfg.RequestTimeout(),
	}
}
