package actions

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

// Input clears a random text field and types synthetic data chosen from the
// field's type and naming hints.
type Input struct {
	rng    *rand.Rand
	settle time.Duration
	gen    *Generator
}

func (a *Input) Kind() schemas.ActionKind { return schemas.ActionInput }

func (a *Input) Execute(ctx context.Context, env Env) Result {
	cand, res, ok := pickCandidate(ctx, a.rng, a.Kind(), env.Elements.Inputs)
	if !ok {
		return res
	}
	value := a.gen.For(cand.Descriptor)
	res.Descriptor = fmt.Sprintf("%s <- %q", res.Descriptor, value)

	if err := prepare(ctx, env.Page, cand.Handle, a.settle); err != nil {
		return res.fail(err, classify(err))
	}
	if err := env.Page.Clear(ctx, cand.Handle); err != nil {
		return res.fail(fmt.Errorf("clear: %w", err), classify(err))
	}
	if err := env.Page.SendKeys(ctx, cand.Handle, value); err != nil {
		return res.fail(fmt.Errorf("type: %w", err), classify(err))
	}
	res.Succeeded = true
	return res
}
