// Package worker runs one account's workflow for one cycle:
//
//	INIT -> PROXY_CHECK -> TOKEN_CHECK -> SYNC -> [ONBOARD] -> CHECK_IN -> DONE
//
// Any state may end in ABORTED. Failures, including panics, never leave the worker.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"VoyageBot/internal/client"
	"VoyageBot/internal/clock"
	"VoyageBot/internal/model"
	"VoyageBot/internal/token"
)

// Sender issues remote calls for one account.
type Sender interface {
	Send(ctx context.Context, req model.Request) model.Envelope
	SetToken(token string)
}

// Resolver binds an account to its egress path.
type Resolver interface {
	Resolve(ctx context.Context, acc *model.Account) (string, error)
}

// Fingerprints hands out the cached client fingerprint for a subject.
type Fingerprints interface {
	Ensure(subject string) (fp string, created bool, err error)
}

// SenderFactory builds the request client owned by one worker.
type SenderFactory func(acc *model.Account, agent string) (Sender, error)

// Deps are the collaborators shared by every worker of a run.
type Deps struct {
	Config       Config
	Resolver     Resolver
	Validator    *token.Validator
	Fingerprints Fingerprints
	RefCodes     []string
	Clock        clock.Clock
	Logger       zerolog.Logger
	NewSender    SenderFactory // nil builds a client.Client
}

// Worker owns all mutable state of one account run. It is used by a single goroutine.
type Worker struct {
	acc     *model.Account
	deps    Deps
	refCode string
	sender  Sender
	log     zerolog.Logger
	res     model.RunResult
}

// New creates a worker for acc and picks its referral code.
func New(acc *model.Account, deps Deps) *Worker {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Validator == nil {
		deps.Validator = token.NewValidator(deps.Clock.Now)
	}
	if deps.NewSender == nil {
		deps.NewSender = defaultSender(deps)
	}
	w := &Worker{
		acc:     acc,
		deps:    deps,
		refCode: PickRefCode(deps.RefCodes, deps.Config.DefaultRefCode, nil),
	}
	w.relabel()
	return w
}

// RefCode returns the referral code chosen for this worker.
func (w *Worker) RefCode() string { return w.refCode }

// Logger returns the account-scoped logger.
func (w *Worker) Logger() zerolog.Logger { return w.log }

// Run executes the workflow and always returns a terminal result.
func (w *Worker) Run(ctx context.Context) (res model.RunResult) {
	start := w.deps.Clock.Now()
	w.res = model.RunResult{
		Index:     w.acc.Index,
		Subject:   w.acc.Subject,
		StartedAt: start,
	}
	state := model.StateInit

	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("state", string(state)).Interface("panic", r).Msg("workflow crashed")
			w.res.State = model.StateAborted
			w.res.FailedAt = state
			w.res.Reason = fmt.Sprintf("unexpected error: %v", r)
		}
		w.res.ProxyIP = w.acc.ProxyIP
		w.res.Duration = w.deps.Clock.Now().Sub(start)
		res = w.res
	}()

	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			w.abort(state, "cancelled: "+err.Error())
			state = model.StateAborted
			break
		}
		next := w.step(ctx, state)
		w.log.Debug().Str("from", string(state)).Str("to", string(next)).Msg("transition")
		state = next
	}
	w.res.State = state
	return w.res
}

func (w *Worker) step(ctx context.Context, s model.State) model.State {
	switch s {
	case model.StateInit:
		return w.init()
	case model.StateProxyCheck:
		return w.proxyCheck(ctx)
	case model.StateTokenCheck:
		return w.tokenCheck()
	case model.StateSync:
		return w.sync(ctx)
	case model.StateOnboard:
		return w.onboard(ctx)
	case model.StateCheckIn:
		return w.checkIn(ctx)
	default:
		return w.abort(s, fmt.Sprintf("unknown state %q", s))
	}
}

func (w *Worker) init() model.State {
	agent := ""
	if w.deps.Fingerprints != nil {
		fp, created, err := w.deps.Fingerprints.Ensure(w.acc.Subject)
		if err != nil {
			w.log.Warn().Err(err).Msg("cannot persist fingerprint cache")
		}
		if created {
			w.log.Info().Msg("created new client fingerprint")
		}
		agent = fp
	}
	sender, err := w.deps.NewSender(w.acc, agent)
	if err != nil {
		return w.abort(model.StateInit, "build client: "+err.Error())
	}
	w.sender = sender
	if w.deps.Config.UseProxy {
		return model.StateProxyCheck
	}
	return model.StateTokenCheck
}

func (w *Worker) proxyCheck(ctx context.Context) model.State {
	if w.deps.Resolver == nil {
		return w.abort(model.StateProxyCheck, "no proxy resolver configured")
	}
	ip, err := w.deps.Resolver.Resolve(ctx, w.acc)
	if err != nil {
		return w.abort(model.StateProxyCheck, "cannot check proxy IP: "+err.Error())
	}
	w.acc.ProxyIP = ip
	w.relabel()
	w.log.Info().Msg("proxy ready")
	return model.StateTokenCheck
}

func (w *Worker) tokenCheck() model.State {
	if strings.TrimSpace(w.acc.Token) == "" {
		return w.abort(model.StateTokenCheck, "no token found")
	}
	st := w.deps.Validator.Validate(w.acc.Token)
	level := zerolog.InfoLevel
	if st.Expired {
		level = zerolog.WarnLevel
	}
	exp := "unknown"
	if !st.ExpiresAt.IsZero() {
		exp = st.ExpiresAt.Format(time.RFC3339)
	}
	w.log.WithLevel(level).Bool("expired", st.Expired).Str("expires_at", exp).Msg("access token status")
	if st.Expired {
		return w.abort(model.StateTokenCheck, "access token expired")
	}
	w.sender.SetToken(w.acc.Token)
	return model.StateSync
}

// sync fetches profile and balance. The profile read gets one extra attempt unless the
// first answer was a definitive 400, on top of the client's own retry budget.
func (w *Worker) sync(ctx context.Context) model.State {
	w.log.Info().Msg("syncing data")
	cfg := w.deps.Config

	profile := w.sender.Send(ctx, cfg.profileRequest())
	if !profile.Success && profile.Status != 400 {
		profile = w.sender.Send(ctx, cfg.profileRequest())
	}
	if !profile.Success {
		return w.abort(model.StateSync, "can't sync data: "+profile.Error)
	}

	balance := "unknown"
	if points := w.sender.Send(ctx, cfg.pointsRequest()); points.Success {
		balance = points.Get("balance").String()
	} else {
		w.log.Warn().Int("status", points.Status).Str("error", points.Error).Msg("can't read point balance")
	}
	w.res.Points = balance

	username := profile.Get("username").String()
	w.log.Info().Str("username", username).Str("points", balance).Msg("account synced")

	if strings.Trim(profile.Get("status").String(), `"`) == "onboarding" {
		return model.StateOnboard
	}
	return model.StateCheckIn
}

func (w *Worker) onboard(ctx context.Context) model.State {
	w.log.Info().Str("ref_code", w.refCode).Msg("applying referral code to complete onboarding")
	req, err := w.deps.Config.onboardRequest(displayName(), w.refCode)
	if err != nil {
		return w.abort(model.StateOnboard, "build onboarding request: "+err.Error())
	}
	if env := w.sender.Send(ctx, req); env.Success {
		w.log.Info().Str("result", "success").Msg("onboarding completed")
	} else {
		w.log.Warn().Int("status", env.Status).Str("error", env.Error).Msg("onboarding failed")
	}
	return model.StateCheckIn
}

func (w *Worker) checkIn(ctx context.Context) model.State {
	cfg := w.deps.Config
	status := w.sender.Send(ctx, cfg.checkinStatusRequest())
	if !status.Success {
		return w.abort(model.StateCheckIn, "can't read check-in status: "+status.Error)
	}

	checked := status.Get("checked_in")
	if !checked.Exists() || checked.Bool() {
		w.res.Already = true
		w.log.Warn().Msg("already checked in today, skipping")
		return model.StateDone
	}

	res := w.sender.Send(ctx, cfg.checkinRequest())
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		w.res.CheckInFailed = true
		w.res.Reason = "check-in failed: " + msg
		w.log.Warn().Int("status", res.Status).Str("error", msg).Msg(w.res.Reason)
		return model.StateDone
	}
	w.res.CheckedIn = true
	w.res.Reward = res.Get("reward").String()
	w.log.Info().Str("result", "success").Str("reward", w.res.Reward).
		Msgf("check-in successful, earned %s points", w.res.Reward)
	return model.StateDone
}

func (w *Worker) abort(at model.State, reason string) model.State {
	w.res.FailedAt = at
	w.res.Reason = reason
	w.log.Warn().Str("state", string(at)).Msg(reason)
	return model.StateAborted
}

// relabel rebuilds the account logger so every line carries the current egress IP.
func (w *Worker) relabel() {
	w.log = w.deps.Logger.With().
		Int("account", w.acc.Number()).
		Str("sub", w.acc.Subject).
		Str("ip", IPLabel(w.deps.Config.UseProxy, w.acc.ProxyIP)).
		Logger()
}

// IPLabel is the egress tag attached to account log lines.
func IPLabel(useProxy bool, ip string) string {
	switch {
	case !useProxy:
		return "local"
	case ip == "":
		return "unknown"
	default:
		return ip
	}
}

func defaultSender(deps Deps) SenderFactory {
	cfg := deps.Config
	return func(acc *model.Account, agent string) (Sender, error) {
		proxyURL := ""
		if cfg.UseProxy {
			proxyURL = acc.Proxy
		}
		hc, err := client.NewHTTPClient(proxyURL, cfg.RequestTimeout, cfg.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		return client.New(hc, client.StandardHeaders(agent, cfg.Origin), client.Options{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Timeout:    cfg.RequestTimeout,
			Clock:      deps.Clock,
			Logger:     deps.Logger.With().Int("account", acc.Number()).Logger(),
		}), nil
	}
}
