// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// defaultOpTimeout bounds single element operations when the caller's context
// carries no tighter deadline.
const defaultOpTimeout = 10 * time.Second

// keyText maps key names to the runes chromedp dispatches.
var keyText = map[Key]string{
	KeyTab:      kb.Tab,
	KeyEnter:    kb.Enter,
	KeyEscape:   kb.Escape,
	KeySpace:    " ",
	KeyPageDown: kb.PageDown,
	KeyPageUp:   kb.PageUp,
	KeyHome:     kb.Home,
	KeyEnd:      kb.End,
}

// Session is one browser tab driven over CDP. It implements Page.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.NetworkConfig

	// mu guards dialog, which the CDP event listener writes from its own goroutine.
	mu     sync.Mutex
	dialog *Dialog
}

var _ Page = (*Session)(nil)

// newSession opens a tab under the allocator context and starts listening for
// native dialogs.
func newSession(allocCtx context.Context, logger *zap.Logger, cfg config.NetworkConfig) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.Named("session"),
		cfg:    cfg,
	}

	chromedp.ListenTarget(tabCtx, s.handleEvent)

	// The first Run creates the target and enables the page domain.
	if err := chromedp.Run(tabCtx, page.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: could not open tab: %w", ErrSetup, err)
	}
	return s, nil
}

func (s *Session) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		s.mu.Lock()
		s.dialog = &Dialog{Type: string(e.Type), Message: e.Message}
		s.mu.Unlock()
		s.logger.Debug("Native dialog opened.", zap.String("type", string(e.Type)), zap.String("message", e.Message))
	case *page.EventJavascriptDialogClosed:
		s.mu.Lock()
		s.dialog = nil
		s.mu.Unlock()
	}
}

// blocked fails fast while a native dialog is open; script evaluation would
// otherwise hang until its deadline.
func (s *Session) blocked() error {
	if d, ok := s.PendingDialog(); ok {
		return fmt.Errorf("%w (%s)", ErrDialogOpen, d.Type)
	}
	return nil
}

// Close terminates the tab.
func (s *Session) Close() {
	s.cancel()
}

// runActions executes chromedp actions bound to the tab but governed by ctx.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// withOpTimeout applies the default operation deadline.
func withOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultOpTimeout)
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating session.", zap.String("url", url))

	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()

	if err := s.runActions(navCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s timed out after %v", ErrNavigation, url, navTimeout)
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return nil
}

// URL reports the current document location.
func (s *Session) URL(ctx context.Context) (string, error) {
	if err := s.blocked(); err != nil {
		return "", err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()
	var loc string
	if err := s.runActions(opCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// Query implements Page.
func (s *Session) Query(ctx context.Context, loc Locator) ([]Element, error) {
	if err := s.blocked(); err != nil {
		return nil, err
	}
	script := fmt.Sprintf(queryScript, quote(loc.Strategy.String()), quote(loc.Expr))

	var raw []byte
	if err := s.runActions(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, fmt.Errorf("query %s failed: %w", loc, err)
	}
	var elements []Element
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("failed to decode query result for %s: %w", loc, err)
	}
	return elements, nil
}

type point struct {
	Found   bool    `json:"found"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Covered bool    `json:"covered"`
	Cover   string  `json:"cover"`
}

// Click dispatches a real mouse click at the element centre. It refuses to
// click when another element would receive the event.
func (s *Session) Click(ctx context.Context, handle string) error {
	if err := s.blocked(); err != nil {
		return err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()

	var pt point
	if err := s.runActions(opCtx, chromedp.Evaluate(fmt.Sprintf(clickPointScript, resolve(handle)), &pt)); err != nil {
		return fmt.Errorf("failed to probe click point: %w", err)
	}
	if !pt.Found {
		return fmt.Errorf("click %s: %w", handle, ErrStaleElement)
	}
	if pt.Covered {
		return fmt.Errorf("%w: covered by %s", ErrClickIntercepted, pt.Cover)
	}
	if err := s.runActions(opCtx, chromedp.MouseClickXY(pt.X, pt.Y)); err != nil {
		return fmt.Errorf("mouse click failed: %w", err)
	}
	return nil
}

// ScriptClick calls element.click() in the page.
func (s *Session) ScriptClick(ctx context.Context, handle string) error {
	return s.elementAction(ctx, handle, scriptClickSnippet)
}

// Clear empties an input, textarea or contenteditable element.
func (s *Session) Clear(ctx context.Context, handle string) error {
	return s.elementAction(ctx, handle, clearSnippet)
}

// ScrollIntoView centres the element in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, handle string) error {
	return s.elementAction(ctx, handle, scrollIntoViewSnippet)
}

// SendKeys focuses the element and types text as key events.
func (s *Session) SendKeys(ctx context.Context, handle string, text string) error {
	if err := s.elementAction(ctx, handle, focusSnippet); err != nil {
		return err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()
	if err := s.runActions(opCtx, chromedp.KeyEvent(text)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", handle, err)
	}
	return nil
}

// Hover moves the mouse pointer over the element centre without pressing.
func (s *Session) Hover(ctx context.Context, handle string) error {
	if err := s.blocked(); err != nil {
		return err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()

	var pt point
	if err := s.runActions(opCtx, chromedp.Evaluate(fmt.Sprintf(centerScript, resolve(handle)), &pt)); err != nil {
		return fmt.Errorf("failed to locate hover point: %w", err)
	}
	if !pt.Found {
		return fmt.Errorf("hover %s: %w", handle, ErrStaleElement)
	}
	if err := s.runActions(opCtx, chromedp.MouseEvent(input.MouseMoved, pt.X, pt.Y)); err != nil {
		return fmt.Errorf("mouse move failed: %w", err)
	}
	return nil
}

// PressKey blurs the focused element and sends key to the document body.
func (s *Session) PressKey(ctx context.Context, key Key) error {
	text, ok := keyText[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := s.blocked(); err != nil {
		return err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()

	var blurred bool
	if err := s.runActions(opCtx,
		chromedp.Evaluate(blurActiveScript, &blurred),
		chromedp.KeyEvent(text),
	); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, err)
	}
	return nil
}

// Evaluate implements Page.
func (s *Session) Evaluate(ctx context.Context, script string, res interface{}) error {
	if err := s.blocked(); err != nil {
		return err
	}
	if err := s.runActions(ctx, chromedp.Evaluate(script, res)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// PendingDialog reports the native dialog currently blocking the page, if any.
func (s *Session) PendingDialog() (Dialog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog == nil {
		return Dialog{}, false
	}
	return *s.dialog, true
}

// DismissDialog cancels the pending native dialog. Prompts receive no text.
func (s *Session) DismissDialog(ctx context.Context) error {
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()
	if err := s.runActions(opCtx, page.HandleJavaScriptDialog(false)); err != nil {
		return fmt.Errorf("failed to dismiss dialog: %w", err)
	}
	s.mu.Lock()
	s.dialog = nil
	s.mu.Unlock()
	return nil
}

// Screenshot captures the visible viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.blocked(); err != nil {
		return nil, err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()
	var buf []byte
	if err := s.runActions(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// elementAction runs a snippet against a resolved handle.
func (s *Session) elementAction(ctx context.Context, handle, snippet string) error {
	if err := s.blocked(); err != nil {
		return err
	}
	opCtx, cancel := withOpTimeout(ctx)
	defer cancel()

	var found bool
	script := fmt.Sprintf(elementActionScript, snippet, resolve(handle))
	if err := s.runActions(opCtx, chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("element script on %s failed: %w", handle, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", handle, ErrStaleElement)
	}
	return nil
}

// resolve renders the JS expression that looks up handle in the registry.
func resolve(handle string) string {
	return fmt.Sprintf(resolveJS, quote(handle))
}

// quote renders s as a JS string literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
