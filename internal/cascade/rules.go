package cascade

import (
	"fmt"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

const (
	upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// TextChain builds one XPath locator per phrase matching buttons, or
// elements with role=button, whose normalized text contains the phrase.
// Matching is case-insensitive; phrases must be lower-case and free of
// single quotes.
func TextChain(name string, phrases ...string) discovery.Chain {
	locs := make([]browser.Locator, len(phrases))
	for i, p := range phrases {
		locs[i] = browser.XPath(fmt.Sprintf(
			"//*[self::button or @role='button'][contains(translate(normalize-space(.), '%s', '%s'), '%s')]",
			upperAlphabet, lowerAlphabet, p))
	}
	return discovery.NewChain(name, locs...)
}

var (
	identityPhrases = TextChain("identity_provider_text",
		"stay signed out",
		"stay signed-out",
		"continue without signing in",
	)

	identityCloseChain = discovery.CSSChain("identity_provider_close",
		"#credential_picker_container [aria-label*='close' i]",
		"[id*='credential_picker'] [aria-label*='close' i]",
		"[role='dialog'][aria-label*='sign in' i] [aria-label*='close' i]",
		"[role='dialog'][aria-label*='sign in' i] [data-value='cancel']",
		"[role='dialog'][aria-label*='sign in' i] button[data-dismiss]",
	)

	dismissPhrases = TextChain("dismiss_text",
		"skip",
		"not now",
		"no thanks",
		"maybe later",
	)

	consentChain = discovery.CSSChain("consent",
		"#onetrust-accept-btn-handler",
		"#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll",
		"#cookieChoiceDismiss",
		".ot-sdk-row button",
		"[data-gdpr-accept]",
		"[data-testid*='accept']",
		"[data-testid*='cookie']",
		"button[id*='accept']",
		"button[id*='cookie']",
		"button[id*='gdpr']",
		"button[class*='accept']",
		"button[class*='cookie']",
		"button[class*='gdpr']",
		".cookie-banner button",
		".consent-banner button",
		".gdpr-banner button",
		".privacy-banner button",
		".cookie-accept",
		".accept-cookies",
		"[aria-label*='accept' i]",
	)

	modalCloseChain = discovery.CSSChain("modal_close",
		".modal .close",
		".modal button[aria-label='Close']",
		".modal-header .close",
		"button[data-dismiss='modal']",
		"button[data-bs-dismiss='modal']",
		".modal-close",
		".close-modal",
		"button.btn-close",
		".dialog .close",
		".popup .close",
		".overlay .close",
		"[role='dialog'] button[aria-label*='close' i]",
		"[aria-modal='true'] button[aria-label*='close' i]",
		"[role='dialog'] [title*='close' i]",
	)

	notificationChain = discovery.CSSChain("notification",
		"button[data-testid*='notification']",
		".notification-bar button",
		".notification-prompt button",
		"[class*='push-notification'] button[class*='deny']",
		"[class*='push-notification'] button[class*='later']",
	)
)

// DefaultRules returns the built-in cascade in priority order. Every rule
// short-circuits the sweep once it acts.
func DefaultRules(finder Finder) []Rule {
	return []Rule{
		{
			Category: CategoryIdentityProvider,
			Strategies: []Strategy{
				ClickFirst(finder, CategoryIdentityProvider, identityPhrases),
				ClickFirst(finder, CategoryIdentityProvider, identityCloseChain),
			},
			ShortCircuit: true,
		},
		{
			Category:     CategoryDismissText,
			Strategies:   []Strategy{ClickFirst(finder, CategoryDismissText, dismissPhrases)},
			ShortCircuit: true,
		},
		{
			Category:     CategoryConsent,
			Strategies:   []Strategy{ClickFirst(finder, CategoryConsent, consentChain)},
			ShortCircuit: true,
		},
		{
			Category:     CategoryModalClose,
			Strategies:   []Strategy{ClickFirst(finder, CategoryModalClose, modalCloseChain)},
			ShortCircuit: true,
		},
		{
			Category:     CategoryNotification,
			Strategies:   []Strategy{ClickFirst(finder, CategoryNotification, notificationChain)},
			ShortCircuit: true,
		},
		{
			Category:     CategoryNativeDialog,
			Strategies:   []Strategy{DismissNativeDialog()},
			ShortCircuit: true,
		},
		{
			Category:     CategoryEscape,
			Strategies:   []Strategy{EscapeWhenObstructed()},
			ShortCircuit: true,
		},
	}
}
