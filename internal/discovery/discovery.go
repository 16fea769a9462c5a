// internal/discovery/discovery.go
package discovery

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

// ErrNotFound describes an empty discovery result in messages and outcomes.
// Discovery itself never returns it: no match is a normal result.
var ErrNotFound = errors.New("no eligible elements")

// Intent is an abstract request for an element capable of something.
type Intent int

const (
	Clickable Intent = iota
	TextInput
)

func (i Intent) String() string {
	switch i {
	case Clickable:
		return "clickable"
	case TextInput:
		return "text_input"
	default:
		return "unknown"
	}
}

// Chain is an ordered list of locators for one intent. Order is priority.
type Chain struct {
	Name     string
	Locators []browser.Locator
}

// NewChain builds a chain from locators.
func NewChain(name string, locators ...browser.Locator) Chain {
	return Chain{Name: name, Locators: locators}
}

// CSSChain builds a chain of CSS selectors.
func CSSChain(name string, selectors ...string) Chain {
	locs := make([]browser.Locator, len(selectors))
	for i, s := range selectors {
		locs[i] = browser.CSS(s)
	}
	return Chain{Name: name, Locators: locs}
}

// Then returns a new chain with more locators appended at lower priority.
func (c Chain) Then(locators ...browser.Locator) Chain {
	out := make([]browser.Locator, 0, len(c.Locators)+len(locators))
	out = append(out, c.Locators...)
	out = append(out, locators...)
	return Chain{Name: c.Name, Locators: out}
}

// DefaultChains returns the intent chains used for random interaction.
func DefaultChains() map[Intent]Chain {
	return map[Intent]Chain{
		Clickable: CSSChain("clickable",
			"button",
			"a",
			"input[type='submit']",
			"input[type='button']",
			"[onclick]",
			".btn",
			"[role='button']",
		),
		TextInput: CSSChain("text_input",
			"input[type='text']",
			"input[type='email']",
			"input[type='search']",
			"input[type='password']",
			"input[type='number']",
			"input[type='url']",
			"input[type='tel']",
			"textarea",
			"input:not([type])",
		),
	}
}

// Service resolves intents into live page elements.
type Service struct {
	page    browser.Page
	chains  map[Intent]Chain
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithChain overrides the chain used for an intent.
func WithChain(intent Intent, chain Chain) Option {
	return func(s *Service) { s.chains[intent] = chain }
}

// NewService creates a discovery service bound to page. Every call is bounded
// by timeout.
func NewService(page browser.Page, timeout time.Duration, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		page:    page,
		chains:  DefaultChains(),
		timeout: timeout,
		logger:  logger.Named("discovery"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chain returns the chain configured for intent.
func (s *Service) Chain(intent Intent) Chain {
	return s.chains[intent]
}

// Find returns every visible, enabled element satisfying intent, de-duplicated
// by tag and position. An empty result is not an error.
func (s *Service) Find(ctx context.Context, intent Intent) ([]Candidate, error) {
	return s.FindWith(ctx, intent, s.chains[intent])
}

// FindWith is Find over an explicit chain. Every locator is run in order; a
// locator that fails or matches nothing is skipped. When the time budget runs
// out the candidates gathered so far are returned. Only cancellation of ctx
// itself produces an error.
func (s *Service) FindWith(ctx context.Context, intent Intent, chain Chain) ([]Candidate, error) {
	budgetCtx, cancel := s.budget(ctx)
	defer cancel()

	seen := make(map[Key]struct{})
	var out []Candidate

	for _, loc := range chain.Locators {
		if budgetCtx.Err() != nil {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			s.logger.Debug("Discovery budget exhausted.",
				zap.String("chain", chain.Name),
				zap.Duration("budget", s.timeout),
				zap.Int("found", len(out)))
			break
		}

		els, err := s.page.Query(budgetCtx, loc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			s.logger.Debug("Locator skipped.", zap.Stringer("locator", loc), zap.Error(err))
			continue
		}

		for _, el := range els {
			if !el.Visible {
				continue
			}
			d := Describe(el, intent)
			if !d.Enabled {
				continue
			}
			key := d.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Candidate{Handle: el.Handle, Descriptor: d})
		}
	}
	return out, nil
}

// First returns the first visible, enabled element of the first locator in
// chain that yields one. Locators are never merged or reordered.
func (s *Service) First(ctx context.Context, chain Chain) (Candidate, bool) {
	budgetCtx, cancel := s.budget(ctx)
	defer cancel()

	for _, loc := range chain.Locators {
		if budgetCtx.Err() != nil {
			return Candidate{}, false
		}
		els, err := s.page.Query(budgetCtx, loc)
		if err != nil {
			s.logger.Debug("Locator skipped.", zap.String("chain", chain.Name), zap.Stringer("locator", loc), zap.Error(err))
			continue
		}
		for _, el := range els {
			if !el.Visible {
				continue
			}
			d := Describe(el, Clickable)
			if d.Enabled {
				return Candidate{Handle: el.Handle, Descriptor: d}, true
			}
		}
	}
	return Candidate{}, false
}

func (s *Service) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
