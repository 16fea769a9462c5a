// Package cascade clears transient UI obstructions (consent banners, sign-in
// prompts, modals, native dialogs) through a fixed, prioritized sequence of
// heuristics. On a page with nothing to dismiss a sweep only reads the
// document.
package cascade

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/config"
)

// Category names a cascade stage.
type Category string

const (
	CategoryIdentityProvider Category = "identity_provider"
	CategoryDismissText      Category = "dismiss_text"
	CategoryConsent          Category = "consent"
	CategoryModalClose       Category = "modal_close"
	CategoryNotification     Category = "notification"
	CategoryNativeDialog     Category = "native_dialog"
	CategoryEscape           Category = "escape"
	CategoryForceCleanup     Category = "force_cleanup"
)

// StageResult is the typed outcome of one strategy or rule.
type StageResult struct {
	Category Category
	Acted    bool
	Detail   string
	Err      error
}

// Strategy is a single dismissal heuristic. A strategy that fails reports
// the error in its result and counts as not having acted.
type Strategy interface {
	Apply(ctx context.Context, page browser.Page) StageResult
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, page browser.Page) StageResult

func (f StrategyFunc) Apply(ctx context.Context, page browser.Page) StageResult {
	return f(ctx, page)
}

// Rule groups ordered sub-strategies under one category. Evaluation of a
// rule stops at the first sub-strategy that acts. When ShortCircuit is set a
// rule that acted also ends the sweep.
type Rule struct {
	Category     Category
	Strategies   []Strategy
	ShortCircuit bool
}

// Report summarizes one sweep.
type Report struct {
	Acted   bool
	Results []StageResult
	// Forced is set when a Guard escalated to the forced cleanup.
	Forced bool
}

// Categories lists the evaluated categories in order.
func (r Report) Categories() []Category {
	out := make([]Category, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Category
	}
	return out
}

// Cascade runs rules against one page.
type Cascade struct {
	page         browser.Page
	rules        []Rule
	stageTimeout time.Duration
	forceAfter   int
	logger       *zap.Logger
}

// New creates a cascade over rules, in the given order.
func New(page browser.Page, rules []Rule, cfg config.CascadeConfig, logger *zap.Logger) *Cascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cascade{
		page:         page,
		rules:        rules,
		stageTimeout: cfg.StageTimeout,
		forceAfter:   cfg.ForceAfter,
		logger:       logger.Named("cascade"),
	}
}

// Rules returns the configured rules.
func (c *Cascade) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Sweep evaluates the rules in order. It never runs the forced cleanup.
func (c *Cascade) Sweep(ctx context.Context) Report {
	var rep Report
	for _, rule := range c.rules {
		if ctx.Err() != nil {
			break
		}
		res := c.applyRule(ctx, rule)
		rep.Results = append(rep.Results, res)
		if res.Err != nil {
			c.logger.Debug("Cascade stage failed.", zap.String("category", string(res.Category)), zap.Error(res.Err))
		}
		if !res.Acted {
			continue
		}
		rep.Acted = true
		c.logger.Info("Obstruction dismissed.",
			zap.String("category", string(res.Category)),
			zap.String("detail", res.Detail))
		if rule.ShortCircuit {
			break
		}
	}
	return rep
}

func (c *Cascade) applyRule(ctx context.Context, rule Rule) StageResult {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()

	out := StageResult{Category: rule.Category}
	for _, s := range rule.Strategies {
		if stageCtx.Err() != nil {
			if out.Err == nil {
				out.Err = fmt.Errorf("stage %s: %w", rule.Category, stageCtx.Err())
			}
			break
		}
		res := s.Apply(stageCtx, c.page)
		if res.Err != nil {
			res.Acted = false
			out.Err = res.Err
			continue
		}
		if res.Acted {
			return StageResult{Category: rule.Category, Acted: true, Detail: res.Detail}
		}
	}
	return out
}

func (c *Cascade) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.stageTimeout)
}

// Obstructed reports whether a visible dialog, modal or large fixed overlay
// remains on the page. It only reads the document.
func (c *Cascade) Obstructed(ctx context.Context) bool {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()
	found, err := probeObstruction(stageCtx, c.page)
	if err != nil {
		c.logger.Debug("Obstruction probe failed.", zap.Error(err))
		return false
	}
	return found
}

// ForceCleanup removes modal containers and high z-index overlays from the
// document and releases body scroll locks. It is never part of Sweep.
func (c *Cascade) ForceCleanup(ctx context.Context) StageResult {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()

	res := StageResult{Category: CategoryForceCleanup}
	var removed int
	if err := c.page.Evaluate(stageCtx, forceCleanupScript, &removed); err != nil {
		res.Err = fmt.Errorf("forced cleanup: %w", err)
		c.logger.Warn("Forced cleanup failed.", zap.Error(err))
		return res
	}
	res.Acted = removed > 0
	res.Detail = fmt.Sprintf("removed %d elements", removed)
	c.logger.Info("Forced cleanup ran.", zap.Int("removed", removed))
	return res
}

// NewGuard returns a tracker for one page load.
func (c *Cascade) NewGuard() *Guard {
	forceAfter := c.forceAfter
	if forceAfter < 1 {
		forceAfter = 1
	}
	return &Guard{cascade: c, forceAfter: forceAfter}
}
