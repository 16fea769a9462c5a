// internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/browser/browsertest"
)

func newTestService(t *testing.T, page *browsertest.Page, opts ...Option) *Service {
	t.Helper()
	return NewService(page, 2*time.Second, zaptest.NewLogger(t), opts...)
}

func handles(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Handle
	}
	return out
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	t.Run("de-duplicates the same element matched by two queries", func(t *testing.T) {
		page := browsertest.New()
		submit := browsertest.Visible("m1", "button", 100, 200, map[string]string{"id": "go", "class": "btn"})
		page.Add(browser.CSS("button"), submit)
		page.Add(browser.CSS(".btn"), submit)

		got, err := newTestService(t, page).Find(ctx, Clickable)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "m1", got[0].Handle)
		assert.Equal(t, "button#go.btn", got[0].Descriptor.String())
	})

	t.Run("same tag at the same rounded position is one element", func(t *testing.T) {
		page := browsertest.New()
		page.Add(browser.CSS("a"),
			browsertest.Visible("m1", "a", 10.2, 20.4, nil),
			browsertest.Visible("m2", "a", 10.4, 19.6, nil),
			browsertest.Visible("m3", "a", 300, 20, nil),
		)

		got, err := newTestService(t, page).Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1", "m3"}, handles(got))
	})

	t.Run("filters hidden and disabled elements", func(t *testing.T) {
		page := browsertest.New()
		hidden := browsertest.Visible("m1", "button", 0, 0, nil)
		hidden.Visible = false
		disabled := browsertest.Visible("m2", "button", 50, 0, nil)
		disabled.Enabled = false
		aria := browsertest.Visible("m3", "button", 100, 0, map[string]string{"aria-disabled": "true"})
		ok := browsertest.Visible("m4", "button", 150, 0, nil)
		page.Add(browser.CSS("button"), hidden, disabled, aria, ok)

		got, err := newTestService(t, page).Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"m4"}, handles(got))
	})

	t.Run("read-only fields are not text inputs", func(t *testing.T) {
		page := browsertest.New()
		page.Add(browser.CSS("input[type='text']"),
			browsertest.Visible("m1", "input", 0, 0, map[string]string{"type": "text", "readonly": ""}),
			browsertest.Visible("m2", "input", 0, 40, map[string]string{"type": "text"}),
		)

		got, err := newTestService(t, page).Find(ctx, TextInput)
		require.NoError(t, err)
		assert.Equal(t, []string{"m2"}, handles(got))
	})

	t.Run("failing queries are skipped", func(t *testing.T) {
		page := browsertest.New()
		page.Errors[browser.CSS("button")] = errors.New("SyntaxError")
		page.Add(browser.CSS("a"), browsertest.Visible("m1", "a", 0, 0, nil))

		got, err := newTestService(t, page).Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1"}, handles(got))
	})

	t.Run("nothing found is empty, not an error", func(t *testing.T) {
		got, err := newTestService(t, browsertest.New()).Find(ctx, TextInput)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("results keep chain order", func(t *testing.T) {
		page := browsertest.New()
		page.Add(browser.CSS("[role='button']"), browsertest.Visible("late", "div", 0, 0, nil))
		page.Add(browser.CSS("button"), browsertest.Visible("early", "button", 0, 0, nil))

		got, err := newTestService(t, page).Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"early", "late"}, handles(got))
	})

	t.Run("budget exhaustion returns partial results", func(t *testing.T) {
		page := browsertest.New()
		page.Add(browser.CSS("button"), browsertest.Visible("m1", "button", 0, 0, nil))
		page.OnQuery = func(ctx context.Context, loc browser.Locator) error {
			if loc.Expr == "a" {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		}

		svc := NewService(page, 50*time.Millisecond, zaptest.NewLogger(t))
		start := time.Now()
		got, err := svc.Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1"}, handles(got))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("caller cancellation is reported", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newTestService(t, browsertest.New()).Find(cctx, Clickable)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("chain override", func(t *testing.T) {
		page := browsertest.New()
		page.Add(browser.CSS(".only"), browsertest.Visible("m9", "span", 0, 0, nil))

		svc := newTestService(t, page, WithChain(Clickable, CSSChain("custom", ".only")))
		got, err := svc.Find(ctx, Clickable)
		require.NoError(t, err)
		assert.Equal(t, []string{"m9"}, handles(got))
		assert.Equal(t, []browser.Locator{browser.CSS(".only")}, page.Queries)
	})
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	chain := NewChain("login_button",
		browser.CSS("#login"),
		browser.CSS("button[type='submit']"),
		browser.XPath("//button[contains(., 'Log in')]"),
	)

	t.Run("first usable element of the first non-empty query", func(t *testing.T) {
		page := browsertest.New()
		hidden := browsertest.Visible("h", "button", 0, 0, nil)
		hidden.Visible = false
		page.Add(browser.CSS("#login"), hidden)
		page.Add(browser.CSS("button[type='submit']"),
			browsertest.Visible("s1", "button", 0, 0, nil),
			browsertest.Visible("s2", "button", 0, 50, nil),
		)
		page.Add(browser.XPath("//button[contains(., 'Log in')]"), browsertest.Visible("x1", "button", 0, 0, nil))

		got, ok := newTestService(t, page).First(ctx, chain)
		require.True(t, ok)
		assert.Equal(t, "s1", got.Handle)
		assert.Equal(t, []browser.Locator{chain.Locators[0], chain.Locators[1]}, page.Queries,
			"lower-priority locators are not evaluated once one matches")
	})

	t.Run("not found", func(t *testing.T) {
		_, ok := newTestService(t, browsertest.New()).First(ctx, chain)
		assert.False(t, ok)
	})
}

func TestChainThen(t *testing.T) {
	base := CSSChain("x", "a")
	extended := base.Then(browser.CSS("b"))

	assert.Len(t, base.Locators, 1, "Then must not modify the receiver")
	assert.Equal(t, []browser.Locator{browser.CSS("a"), browser.CSS("b")}, extended.Locators)
}

func TestDescriptor(t *testing.T) {
	el := browser.Element{
		Handle: "m1",
		Tag:    "INPUT",
		Attributes: map[string]string{
			"type":        "email",
			"name":        "user_email",
			"class":       "form-control  wide",
			"data-ignore": "x",
		},
		Text: "  spaced \n  text ",
		X:    12.6,
		Y:    7.4,
	}
	el.Enabled = true

	d := Describe(el, TextInput)
	assert.Equal(t, "input", d.Tag)
	assert.Equal(t, "spaced text", d.Text)
	assert.Equal(t, Key{Tag: "input", X: 13, Y: 7}, d.Key())
	assert.NotContains(t, d.Attributes, "data-ignore")
	assert.Equal(t, `input.form-control.wide[name="user_email"][type="email"] "spaced text"`, d.String())
	assert.NotEmpty(t, d.Fingerprint)
	assert.Equal(t, d.Fingerprint, Describe(el, TextInput).Fingerprint, "fingerprints are deterministic")

	assert.Equal(t, "abc…", truncate("abcdef", 3))
	assert.Equal(t, "é…", truncate("éé", 3), "never split a rune")
}
