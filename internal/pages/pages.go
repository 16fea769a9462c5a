// Package pages selects a page-kind strategy by URL. A strategy supplies the
// locator chains used for random interaction and the specialized actions run
// once per page load.
package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/xkilldash9x/monkey-cli/internal/actions"
	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

// Finder is the discovery surface strategies need.
type Finder interface {
	FindWith(ctx context.Context, intent discovery.Intent, chain discovery.Chain) ([]discovery.Candidate, error)
	First(ctx context.Context, chain discovery.Chain) (discovery.Candidate, bool)
}

// Env is what a specialized action works with.
type Env struct {
	Page      browser.Page
	Finder    Finder
	Generator *actions.Generator
}

// StepResult records a specialized action. These are logged but are not
// counted as monkey outcomes.
type StepResult struct {
	Name   string
	Acted  bool
	Detail string
	Err    error
}

// SpecializedAction is a scripted interaction specific to a page kind.
type SpecializedAction struct {
	Name string
	Run  func(ctx context.Context, env Env) StepResult
}

// Strategy describes how to exercise one kind of page.
type Strategy struct {
	Name               string
	Clickable          discovery.Chain
	Inputs             discovery.Chain
	SpecializedActions []SpecializedAction
}

// Bind returns an element source that discovers candidates with the
// strategy's chains.
func (s Strategy) Bind(finder Finder) actions.ElementSource {
	return &boundSource{strategy: s, finder: finder}
}

type boundSource struct {
	strategy Strategy
	finder   Finder
}

func (b *boundSource) Clickable(ctx context.Context) ([]discovery.Candidate, error) {
	return b.finder.FindWith(ctx, discovery.Clickable, b.strategy.Clickable)
}

func (b *boundSource) Inputs(ctx context.Context) ([]discovery.Candidate, error) {
	return b.finder.FindWith(ctx, discovery.TextInput, b.strategy.Inputs)
}

// Generic is the fallback strategy: default chains and no specialized actions.
func Generic() Strategy {
	chains := discovery.DefaultChains()
	return Strategy{
		Name:      "generic",
		Clickable: chains[discovery.Clickable],
		Inputs:    chains[discovery.TextInput],
	}
}

type entry struct {
	pattern  *regexp.Regexp
	strategy Strategy
}

// Registry maps URL patterns to strategies. The first matching pattern wins;
// unmatched URLs get the fallback.
type Registry struct {
	entries  []entry
	fallback Strategy
}

// NewRegistry creates an empty registry with the given fallback.
func NewRegistry(fallback Strategy) *Registry {
	return &Registry{fallback: fallback}
}

// DefaultRegistry recognizes login and search pages and falls back to Generic.
func DefaultRegistry() *Registry {
	r := NewRegistry(Generic())
	r.MustRegister(`(?i)login|signin|sign-in|auth`, Login())
	r.MustRegister(`(?i)search|google\.|bing\.|duckduckgo`, Search())
	return r
}

// Register adds a strategy for URLs matching pattern.
func (r *Registry) Register(pattern string, s Strategy) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for strategy %q: %w", s.Name, err)
	}
	r.entries = append(r.entries, entry{pattern: re, strategy: s})
	return nil
}

// MustRegister is Register for patterns known to be valid.
func (r *Registry) MustRegister(pattern string, s Strategy) {
	if err := r.Register(pattern, s); err != nil {
		panic(err)
	}
}

// Select returns the strategy for url.
func (r *Registry) Select(url string) Strategy {
	for _, e := range r.entries {
		if e.pattern.MatchString(url) {
			return e.strategy
		}
	}
	return r.fallback
}

// fill clears and types into the first usable element of chain.
func fill(ctx context.Context, env Env, chain discovery.Chain, text string) (discovery.Candidate, error) {
	cand, ok := env.Finder.First(ctx, chain)
	if !ok {
		return cand, fmt.Errorf("%s: %w", chain.Name, discovery.ErrNotFound)
	}
	if err := env.Page.Clear(ctx, cand.Handle); err != nil {
		return cand, fmt.Errorf("%s: clear: %w", chain.Name, err)
	}
	if err := env.Page.SendKeys(ctx, cand.Handle, text); err != nil {
		return cand, fmt.Errorf("%s: type: %w", chain.Name, err)
	}
	return cand, nil
}

// press clicks the first usable element of chain, using a script click when
// the pointer target is covered.
func press(ctx context.Context, env Env, chain discovery.Chain) (discovery.Candidate, error) {
	cand, ok := env.Finder.First(ctx, chain)
	if !ok {
		return cand, fmt.Errorf("%s: %w", chain.Name, discovery.ErrNotFound)
	}
	err := env.Page.Click(ctx, cand.Handle)
	if err != nil && isIntercepted(err) {
		err = env.Page.ScriptClick(ctx, cand.Handle)
	}
	if err != nil {
		return cand, fmt.Errorf("%s: click: %w", chain.Name, err)
	}
	return cand, nil
}
