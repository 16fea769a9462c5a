// Package orchestrator runs a monkey session: for each target page it
// navigates, clears obstructions, runs the page strategy and then the adaptive
// action loop.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/actions"
	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/cascade"
	"github.com/xkilldash9x/monkey-cli/internal/config"
	"github.com/xkilldash9x/monkey-cli/internal/controller"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
	"github.com/xkilldash9x/monkey-cli/internal/observability"
	"github.com/xkilldash9x/monkey-cli/internal/outcome"
	"github.com/xkilldash9x/monkey-cli/internal/pages"
	"github.com/xkilldash9x/monkey-cli/internal/screenshot"
)

// pageLoadLabel names page load failures in screenshots.
const pageLoadLabel = "page_load"

// ScreenshotTaker captures the page after a step.
type ScreenshotTaker interface {
	Capture(ctx context.Context, page screenshot.Capturer, label, pageURL, errMsg string) (string, bool)
}

// ActionLogger receives one record per attempted action.
type ActionLogger interface {
	LogAction(rec observability.ActionRecord)
}

// Runner owns the per-session state: the controller, the outcome log and the
// obstruction guard. It drives a single page and is not safe for concurrent use.
type Runner struct {
	page       browser.Page
	cfg        *config.Config
	logger     *zap.Logger
	rng        *rand.Rand
	controller *controller.Controller
	aggregator *outcome.Aggregator
	executors  *actions.Registry
	finder     *discovery.Service
	cascade    *cascade.Cascade
	guard      *cascade.Guard
	strategies *pages.Registry
	generator  *actions.Generator
	pacer      *Pacer
	shots      ScreenshotTaker
	actionLog  ActionLogger
	onSuccess  map[schemas.ActionKind]bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithScreenshots enables screenshot capture.
func WithScreenshots(s ScreenshotTaker) Option {
	return func(r *Runner) { r.shots = s }
}

// WithActionLogger sends every outcome to l.
func WithActionLogger(l ActionLogger) Option {
	return func(r *Runner) { r.actionLog = l }
}

// WithAggregator replaces the default outcome aggregator, typically with one
// that exports metrics.
func WithAggregator(a *outcome.Aggregator) Option {
	return func(r *Runner) { r.aggregator = a }
}

// WithStrategies replaces the page strategy registry.
func WithStrategies(reg *pages.Registry) Option {
	return func(r *Runner) { r.strategies = reg }
}

// WithRand fixes the random source for every component of the run.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// New wires a runner around page.
func New(page browser.Page, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if page == nil || cfg == nil {
		return nil, fmt.Errorf("cannot initialize runner with nil dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		page:   page,
		cfg:    cfg,
		logger: logger.Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.rng == nil {
		seed := cfg.Monkey.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r.rng = rand.New(rand.NewSource(seed))
	}
	if r.aggregator == nil {
		r.aggregator = outcome.NewAggregator()
	}
	if r.strategies == nil {
		r.strategies = pages.DefaultRegistry()
	}

	ctrl, err := controller.New(cfg.Monkey, r.rng, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}
	r.controller = ctrl

	r.executors = actions.NewRegistry(r.rng, cfg.Monkey.Settle)
	r.generator = actions.NewGenerator(r.rng)
	r.finder = discovery.NewService(page, cfg.Discovery.Timeout, logger)
	r.cascade = cascade.New(page, cascade.DefaultRules(r.finder), cfg.Cascade, logger)
	r.guard = r.cascade.NewGuard()
	r.pacer = NewPacer(cfg.Monkey.MaxActionsPerSecond, cfg.Monkey.MinDelay, cfg.Monkey.MaxDelay, r.rng)

	r.onSuccess = make(map[schemas.ActionKind]bool)
	for _, k := range cfg.Screenshots.OnSuccess {
		kind, err := schemas.ParseActionKind(k)
		if err != nil {
			return nil, fmt.Errorf("screenshots.on_success: %w", err)
		}
		r.onSuccess[kind] = true
	}
	return r, nil
}

// Controller exposes the adaptive controller for reporting.
func (r *Runner) Controller() *controller.Controller {
	return r.controller
}

// Aggregator exposes the outcome log.
func (r *Runner) Aggregator() *outcome.Aggregator {
	return r.aggregator
}

// Run exercises every URL in order and returns the session summary. When ctx
// is cancelled the in-flight action completes and is recorded, then Run
// returns the summary so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, urls []string) (outcome.Summary, error) {
	r.logger.Info("Starting monkey session.",
		zap.Int("pages", len(urls)),
		zap.Int("actions_per_page", r.cfg.Monkey.ActionsPerPage),
		zap.Float64("target_rate", r.cfg.Monkey.TargetRate),
		zap.String("weights", r.controller.Weights().Describe()))

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		r.logger.Info("Testing page.", zap.Int("index", i+1), zap.Int("of", len(urls)), zap.String("url", u))
		r.runPage(ctx, u)
	}

	sum := r.aggregator.Summary()
	r.logger.Info("Monkey session finished.",
		zap.Int("actions", sum.Stats.Total),
		zap.Float64("success_rate_percent", sum.SuccessRate),
		zap.Int("pages_failed", sum.PagesFailed),
		zap.Int("adaptations", r.controller.Adaptations()),
		zap.String("final_weights", r.controller.Weights().Describe()))
	return sum, ctx.Err()
}

func (r *Runner) runPage(ctx context.Context, url string) {
	page := schemas.PageOutcome{URL: url, StartedAt: time.Now()}

	if err := r.page.Navigate(ctx, url); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("Page failed to load.", zap.String("url", url), zap.Error(err))
		page.Error = err.Error()
		capCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.cfg.Monkey.ActionTimeout)
		r.capture(capCtx, pageLoadLabel, url, err.Error())
		cancel()
		r.aggregator.RecordPage(page)
		return
	}
	page.Loaded = true
	r.guard.Reset()

	if err := sleep(ctx, r.cfg.Network.PostLoadWait); err != nil {
		r.aggregator.RecordPage(page)
		return
	}
	r.guard.Sweep(ctx)

	strategy := r.strategies.Select(url)
	r.logger.Debug("Page strategy selected.", zap.String("strategy", strategy.Name))
	r.runSpecialized(ctx, strategy)

	env := actions.Env{Page: r.page, Elements: strategy.Bind(r.finder)}
	sweepEvery := r.cfg.Cascade.SweepEvery
	for n := 0; n < r.cfg.Monkey.ActionsPerPage; n++ {
		if ctx.Err() != nil {
			break
		}
		if sweepEvery > 0 && n > 0 && n%sweepEvery == 0 {
			r.guard.Sweep(ctx)
		}

		o := r.step(ctx, env, url)
		page.Actions++
		if o.Succeeded {
			page.Succeeded++
		}

		if n < r.cfg.Monkey.ActionsPerPage-1 {
			if err := r.pacer.Wait(ctx); err != nil {
				break
			}
		}
	}

	r.aggregator.RecordPage(page)
	r.logger.Info("Page complete.",
		zap.String("url", url),
		zap.Int("actions", page.Actions),
		zap.Int("succeeded", page.Succeeded))
}

// step runs one selected action and feeds the outcome back to the controller.
func (r *Runner) step(ctx context.Context, env actions.Env, url string) schemas.ActionOutcome {
	kind := r.controller.Select()
	actCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.cfg.Monkey.ActionTimeout)
	defer cancel()

	var res actions.Result
	if exec, ok := r.executors.Get(kind); ok {
		res = actions.Run(actCtx, exec, env)
	} else {
		res = actions.Result{Kind: kind, ErrKind: schemas.ErrorSetup, Err: fmt.Errorf("no executor for %q", kind)}
	}

	o := schemas.ActionOutcome{
		Timestamp: time.Now(),
		Kind:      kind,
		URL:       url,
		Succeeded: res.Succeeded,
		Error:     res.Message(),
		ErrorKind: res.ErrKind,
		Element:   res.Descriptor,
	}
	if !res.Succeeded || r.onSuccess[kind] {
		// actCtx may already be spent by an action that ran out of time.
		capCtx, capCancel := context.WithTimeout(browser.Detach(ctx), r.cfg.Monkey.ActionTimeout)
		if path, ok := r.capture(capCtx, string(kind), url, o.Error); ok {
			o.Screenshot = path
		}
		capCancel()
	}

	r.aggregator.Record(o)
	if r.actionLog != nil {
		r.actionLog.LogAction(observability.ActionRecord{
			Timestamp:  o.Timestamp,
			Kind:       string(o.Kind),
			URL:        o.URL,
			Element:    o.Element,
			Succeeded:  o.Succeeded,
			Error:      o.Error,
			Screenshot: o.Screenshot,
		})
	}
	r.controller.Observe(r.aggregator.Stats())
	return o
}

// runSpecialized runs the strategy's scripted interactions. Their results are
// logged only.
func (r *Runner) runSpecialized(ctx context.Context, strategy pages.Strategy) {
	env := pages.Env{Page: r.page, Finder: r.finder, Generator: r.generator}
	for _, sa := range strategy.SpecializedActions {
		if ctx.Err() != nil {
			return
		}
		actCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.cfg.Monkey.ActionTimeout)
		res := sa.Run(actCtx, env)
		cancel()
		if res.Err != nil {
			r.logger.Info("Specialized action did not complete.",
				zap.String("strategy", strategy.Name),
				zap.String("action", res.Name),
				zap.Error(res.Err))
			continue
		}
		r.logger.Info("Specialized action complete.",
			zap.String("strategy", strategy.Name),
			zap.String("action", res.Name),
			zap.String("detail", res.Detail))
	}
}

func (r *Runner) capture(ctx context.Context, label, url, errMsg string) (string, bool) {
	if r.shots == nil {
		return "", false
	}
	return r.shots.Capture(ctx, r.page, label, url, errMsg)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
