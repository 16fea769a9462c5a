package actions

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

// Hover moves the pointer over a random clickable element without clicking.
type Hover struct {
	rng    *rand.Rand
	settle time.Duration
}

func (h *Hover) Kind() schemas.ActionKind { return schemas.ActionHover }

func (h *Hover) Execute(ctx context.Context, env Env) Result {
	cand, res, ok := pickCandidate(ctx, h.rng, h.Kind(), env.Elements.Clickable)
	if !ok {
		return res
	}
	if err := prepare(ctx, env.Page, cand.Handle, h.settle); err != nil {
		return res.fail(err, classify(err))
	}
	if err := env.Page.Hover(ctx, cand.Handle); err != nil {
		return res.fail(fmt.Errorf("hover: %w", err), classify(err))
	}
	res.Succeeded = true
	return res
}
