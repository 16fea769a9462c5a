// Package actions implements the five monkey action kinds on top of a
// browser.Page. Executors never panic or return Go errors past their
// boundary: every attempt yields a typed Result.
package actions

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

// ElementSource supplies candidate elements for the current page, usually
// through the page strategy in force.
type ElementSource interface {
	Clickable(ctx context.Context) ([]discovery.Candidate, error)
	Inputs(ctx context.Context) ([]discovery.Candidate, error)
}

// Env is what an executor acts on.
type Env struct {
	Page     browser.Page
	Elements ElementSource
}

// Result is the typed outcome of one executor call.
type Result struct {
	Kind      schemas.ActionKind
	Succeeded bool
	// Descriptor is a human readable account of what was attempted.
	Descriptor string
	ErrKind    schemas.ErrorKind
	Err        error
	// Element is set when the action targeted a discovered element.
	Element *discovery.Descriptor
}

// Message returns the error text, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r Result) fail(err error, kind schemas.ErrorKind) Result {
	r.Succeeded = false
	r.Err = err
	r.ErrKind = kind
	return r
}

// Executor performs one kind of action.
type Executor interface {
	Kind() schemas.ActionKind
	Execute(ctx context.Context, env Env) Result
}

// Run executes exec and converts a panic into a failed Result.
func Run(ctx context.Context, exec Executor, env Env) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Kind:    exec.Kind(),
				ErrKind: schemas.ErrorTransient,
				Err:     fmt.Errorf("action %s panicked: %v", exec.Kind(), r),
			}
		}
	}()
	res = exec.Execute(ctx, env)
	res.Kind = exec.Kind()
	return res
}

// Registry holds one executor per action kind.
type Registry struct {
	executors map[schemas.ActionKind]Executor
}

// NewRegistry builds the default executors. They share rng and must be
// driven from a single goroutine.
func NewRegistry(rng *rand.Rand, settle time.Duration) *Registry {
	gen := NewGenerator(rng)
	r := &Registry{executors: make(map[schemas.ActionKind]Executor)}
	for _, e := range []Executor{
		&Click{rng: rng, settle: settle},
		&Input{rng: rng, settle: settle, gen: gen},
		&Scroll{rng: rng},
		&Hover{rng: rng, settle: settle},
		&Keypress{rng: rng},
	} {
		r.executors[e.Kind()] = e
	}
	return r
}

// Register replaces the executor for its kind.
func (r *Registry) Register(e Executor) {
	r.executors[e.Kind()] = e
}

// Get returns the executor for kind.
func (r *Registry) Get(kind schemas.ActionKind) (Executor, bool) {
	e, ok := r.executors[kind]
	return e, ok
}

// -- shared helpers --

func notFound(kind schemas.ActionKind) Result {
	return Result{Kind: kind, ErrKind: schemas.ErrorNotFound, Err: discovery.ErrNotFound}
}

// pickCandidate fetches elements and picks one uniformly at random.
func pickCandidate(ctx context.Context, rng *rand.Rand, kind schemas.ActionKind, fetch func(context.Context) ([]discovery.Candidate, error)) (discovery.Candidate, Result, bool) {
	cands, err := fetch(ctx)
	if err != nil {
		return discovery.Candidate{}, Result{Kind: kind}.fail(fmt.Errorf("element discovery failed: %w", err), schemas.ErrorTransient), false
	}
	if len(cands) == 0 {
		return discovery.Candidate{}, notFound(kind), false
	}
	c := cands[rng.Intn(len(cands))]
	d := c.Descriptor
	return c, Result{Kind: kind, Descriptor: d.String(), Element: &d}, true
}

// prepare scrolls the element into view and lets the layout settle.
func prepare(ctx context.Context, page browser.Page, handle string, settle time.Duration) error {
	if err := page.ScrollIntoView(ctx, handle); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return pause(ctx, settle)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify maps an interaction error to an ErrorKind.
func classify(err error) schemas.ErrorKind {
	switch {
	case err == nil:
		return schemas.ErrorNone
	case errors.Is(err, browser.ErrNavigation):
		return schemas.ErrorPageLoad
	default:
		return schemas.ErrorTransient
	}
}
