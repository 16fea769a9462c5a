package pages

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

var (
	SearchBoxChain = discovery.CSSChain("search_box",
		"input[name='q']",
		"input[name='query']",
		"input[name='search']",
		"#search",
		"#query",
		"input[type='search']",
		".search-input",
		".search-box",
		"input[placeholder*='search' i]",
		"textarea[name='q']",
	)

	SearchButtonChain = discovery.CSSChain("search_button",
		"input[name='btnK']",
		"input[type='submit']",
		"button[type='submit']",
		".search-btn",
		".search-button",
	).Then(browser.XPath("//button[contains(normalize-space(.), 'Search')]"))
)

// Search exercises search boxes with vocabulary terms.
func Search() Strategy {
	base := Generic()
	clickable := SearchButtonChain.Then(base.Clickable.Locators...)
	clickable.Name = "search_clickable"
	inputs := SearchBoxChain.Then(base.Inputs.Locators...)
	inputs.Name = "search_inputs"
	return Strategy{
		Name:      "search",
		Clickable: clickable,
		Inputs:    inputs,
		SpecializedActions: []SpecializedAction{
			{Name: "submit_search", Run: submitSearch},
		},
	}
}

// submitSearch types a term and presses Enter. When the box cannot be used
// the search button is pressed instead.
func submitSearch(ctx context.Context, env Env) StepResult {
	res := StepResult{Name: "submit_search"}
	term := env.Generator.SearchTerm()

	box, err := fill(ctx, env, SearchBoxChain, term+browser.EnterText)
	if err == nil {
		res.Acted = true
		res.Detail = fmt.Sprintf("searched %q in %s", term, box.Descriptor)
		return res
	}

	btn, btnErr := press(ctx, env, SearchButtonChain)
	if btnErr != nil {
		res.Err = fmt.Errorf("%w; fallback: %w", err, btnErr)
		return res
	}
	res.Acted = true
	res.Detail = fmt.Sprintf("pressed %s", btn.Descriptor)
	return res
}
