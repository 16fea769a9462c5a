package actions

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

// Click clicks a random clickable element. When the click point is covered
// by another element, the click is delivered by script instead and the
// attempt still counts as a success.
type Click struct {
	rng    *rand.Rand
	settle time.Duration
}

func (c *Click) Kind() schemas.ActionKind { return schemas.ActionClick }

func (c *Click) Execute(ctx context.Context, env Env) Result {
	cand, res, ok := pickCandidate(ctx, c.rng, c.Kind(), env.Elements.Clickable)
	if !ok {
		return res
	}
	if err := prepare(ctx, env.Page, cand.Handle, c.settle); err != nil {
		return res.fail(err, classify(err))
	}

	err := env.Page.Click(ctx, cand.Handle)
	if err == nil {
		res.Succeeded = true
		return res
	}
	if !errors.Is(err, browser.ErrClickIntercepted) {
		return res.fail(fmt.Errorf("click: %w", err), classify(err))
	}

	if serr := env.Page.ScriptClick(ctx, cand.Handle); serr != nil {
		return res.fail(fmt.Errorf("script click after interception: %w", serr), classify(serr))
	}
	res.Succeeded = true
	res.Descriptor += " (via script)"
	res.ErrKind = schemas.ErrorIntercepted
	return res
}
