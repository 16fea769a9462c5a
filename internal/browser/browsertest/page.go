// Package browsertest provides an in-memory browser.Page for unit tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Call records one invocation on the fake.
type Call struct {
	Op     string
	Handle string
	Arg    string
}

// Page is a scripted browser.Page. Query answers come from Results and
// Errors, element operations are recorded in Calls, and every operation that
// would change the document increments Mutations.
type Page struct {
	mu sync.Mutex

	CurrentURL string
	Results    map[browser.Locator][]browser.Element
	Errors     map[browser.Locator]error

	// Per-handle failures.
	ClickErr       map[string]error
	ScriptClickErr map[string]error
	SendKeysErr    map[string]error
	HoverErr       map[string]error
	ScrollErr      map[string]error

	NavigateErr  map[string]error
	PressKeyErr  error
	ScreenshotFn func() ([]byte, error)

	// OnEvaluate answers Evaluate. The returned value is JSON round-tripped
	// into the caller's result. A nil hook leaves the result untouched.
	OnEvaluate func(script string) (interface{}, error)
	// OnQuery runs before each query and may block to simulate slow pages.
	OnQuery func(ctx context.Context, loc browser.Locator) error
	// OnAction runs after each recorded element operation.
	OnAction func(c Call)

	Dialog *browser.Dialog

	Calls     []Call
	Queries   []browser.Locator
	Mutations int
}

var _ browser.Page = (*Page)(nil)

// New returns an empty fake page.
func New() *Page {
	return &Page{
		Results:        map[browser.Locator][]browser.Element{},
		Errors:         map[browser.Locator]error{},
		ClickErr:       map[string]error{},
		ScriptClickErr: map[string]error{},
		SendKeysErr:    map[string]error{},
		HoverErr:       map[string]error{},
		ScrollErr:      map[string]error{},
		NavigateErr:    map[string]error{},
	}
}

// Visible builds a visible, enabled element.
func Visible(handle, tag string, x, y float64, attrs map[string]string) browser.Element {
	return browser.Element{
		Handle:     handle,
		Tag:        tag,
		Attributes: attrs,
		X:          x,
		Y:          y,
		Width:      40,
		Height:     20,
		Visible:    true,
		Enabled:    true,
	}
}

// Add appends elements to the answer for loc.
func (p *Page) Add(loc browser.Locator, els ...browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[loc] = append(p.Results[loc], els...)
}

// Ops lists recorded operation names in order.
func (p *Page) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := make([]string, len(p.Calls))
	for i, c := range p.Calls {
		ops[i] = c.Op
	}
	return ops
}

func (p *Page) record(c Call, mutating bool) {
	p.mu.Lock()
	p.Calls = append(p.Calls, c)
	if mutating {
		p.Mutations++
	}
	hook := p.OnAction
	p.mu.Unlock()
	if hook != nil {
		hook(c)
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record(Call{Op: "navigate", Arg: url}, true)
	if err := p.NavigateErr[url]; err != nil {
		return err
	}
	p.mu.Lock()
	p.CurrentURL = url
	p.mu.Unlock()
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL, nil
}

func (p *Page) Query(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	p.mu.Lock()
	p.Queries = append(p.Queries, loc)
	hook := p.OnQuery
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, loc); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Dialog != nil {
		return nil, browser.ErrDialogOpen
	}
	if err := p.Errors[loc]; err != nil {
		return nil, err
	}
	return append([]browser.Element(nil), p.Results[loc]...), nil
}

func (p *Page) Click(ctx context.Context, handle string) error {
	p.record(Call{Op: "click", Handle: handle}, true)
	return p.ClickErr[handle]
}

func (p *Page) ScriptClick(ctx context.Context, handle string) error {
	p.record(Call{Op: "script_click", Handle: handle}, true)
	return p.ScriptClickErr[handle]
}

func (p *Page) Clear(ctx context.Context, handle string) error {
	p.record(Call{Op: "clear", Handle: handle}, true)
	return nil
}

func (p *Page) SendKeys(ctx context.Context, handle string, text string) error {
	p.record(Call{Op: "send_keys", Handle: handle, Arg: text}, true)
	return p.SendKeysErr[handle]
}

func (p *Page) ScrollIntoView(ctx context.Context, handle string) error {
	p.record(Call{Op: "scroll_into_view", Handle: handle}, false)
	return p.ScrollErr[handle]
}

func (p *Page) Hover(ctx context.Context, handle string) error {
	p.record(Call{Op: "hover", Handle: handle}, false)
	return p.HoverErr[handle]
}

func (p *Page) PressKey(ctx context.Context, key browser.Key) error {
	p.record(Call{Op: "press_key", Arg: string(key)}, true)
	return p.PressKeyErr
}

func (p *Page) Evaluate(ctx context.Context, script string, res interface{}) error {
	p.record(Call{Op: "evaluate", Arg: script}, false)
	if p.OnEvaluate == nil {
		return nil
	}
	v, err := p.OnEvaluate(script)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("browsertest: cannot encode evaluate result: %w", err)
	}
	return json.Unmarshal(raw, res)
}

func (p *Page) PendingDialog() (browser.Dialog, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Dialog == nil {
		return browser.Dialog{}, false
	}
	return *p.Dialog, true
}

func (p *Page) DismissDialog(ctx context.Context) error {
	p.record(Call{Op: "dismiss_dialog"}, true)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Dialog == nil {
		return fmt.Errorf("browsertest: no dialog is open")
	}
	p.Dialog = nil
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if p.ScreenshotFn != nil {
		return p.ScreenshotFn()
	}
	return []byte("\x89PNG fake"), nil
}
