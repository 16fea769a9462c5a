package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

// Finder resolves a locator chain to its first usable element.
type Finder interface {
	First(ctx context.Context, chain discovery.Chain) (discovery.Candidate, bool)
}

// ClickFirst clicks the first usable element of chain, falling back to a
// script click when the pointer target is covered.
func ClickFirst(finder Finder, category Category, chain discovery.Chain) Strategy {
	return StrategyFunc(func(ctx context.Context, page browser.Page) StageResult {
		res := StageResult{Category: category}
		cand, ok := finder.First(ctx, chain)
		if !ok {
			return res
		}
		err := page.Click(ctx, cand.Handle)
		if errors.Is(err, browser.ErrClickIntercepted) {
			err = page.ScriptClick(ctx, cand.Handle)
		}
		if err != nil {
			res.Err = fmt.Errorf("%s: click %s: %w", chain.Name, cand.Descriptor, err)
			return res
		}
		res.Acted = true
		res.Detail = fmt.Sprintf("%s: %s", chain.Name, cand.Descriptor)
		return res
	})
}

// DismissNativeDialog cancels a pending alert, confirm or prompt. It never
// accepts one.
func DismissNativeDialog() Strategy {
	return StrategyFunc(func(ctx context.Context, page browser.Page) StageResult {
		res := StageResult{Category: CategoryNativeDialog}
		d, ok := page.PendingDialog()
		if !ok {
			return res
		}
		if err := page.DismissDialog(ctx); err != nil {
			res.Err = fmt.Errorf("dismiss %s dialog: %w", d.Type, err)
			return res
		}
		res.Acted = true
		res.Detail = fmt.Sprintf("%s: %.50s", d.Type, d.Message)
		return res
	})
}

// EscapeWhenObstructed sends Escape to the body, but only when the
// obstruction probe finds something to close.
func EscapeWhenObstructed() Strategy {
	return StrategyFunc(func(ctx context.Context, page browser.Page) StageResult {
		res := StageResult{Category: CategoryEscape}
		found, err := probeObstruction(ctx, page)
		if err != nil {
			res.Err = fmt.Errorf("obstruction probe: %w", err)
			return res
		}
		if !found {
			return res
		}
		if err := page.PressKey(ctx, browser.KeyEscape); err != nil {
			res.Err = fmt.Errorf("press escape: %w", err)
			return res
		}
		res.Acted = true
		res.Detail = "escape"
		return res
	})
}
