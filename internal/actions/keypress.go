package actions

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

// Keys is the set of keys the keypress action sends.
var Keys = []browser.Key{
	browser.KeyTab,
	browser.KeyEnter,
	browser.KeyEscape,
	browser.KeySpace,
	browser.KeyPageDown,
	browser.KeyPageUp,
	browser.KeyHome,
	browser.KeyEnd,
}

// Keypress sends a single key to the document body.
type Keypress struct {
	rng *rand.Rand
}

func (k *Keypress) Kind() schemas.ActionKind { return schemas.ActionKeypress }

func (k *Keypress) Execute(ctx context.Context, env Env) Result {
	key := Keys[k.rng.Intn(len(Keys))]
	res := Result{Kind: k.Kind(), Descriptor: "key " + string(key)}
	if err := env.Page.PressKey(ctx, key); err != nil {
		return res.fail(fmt.Errorf("press %s: %w", key, err), classify(err))
	}
	res.Succeeded = true
	return res
}
