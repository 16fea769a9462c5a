// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClickIntercepted is returned by Page.Click when another element
	// covers the target's click point.
	ErrClickIntercepted = errors.New("click intercepted")
	// ErrStaleElement is returned when a handle no longer refers to a node
	// attached to the document.
	ErrStaleElement = errors.New("element is no longer attached to the page")
	// ErrNavigation wraps every failed page load.
	ErrNavigation = errors.New("navigation failed")
	// ErrSetup wraps failures to start the browser or open a tab.
	ErrSetup = errors.New("browser setup failed")
	// ErrDialogOpen is returned by document operations while a native dialog
	// blocks the page.
	ErrDialogOpen = errors.New("a native dialog is blocking the page")
)

// Strategy is the query language of a Locator.
type Strategy int

const (
	StrategyCSS Strategy = iota
	StrategyXPath
)

func (s Strategy) String() string {
	if s == StrategyXPath {
		return "xpath"
	}
	return "css"
}

// Locator is a single DOM query expression.
type Locator struct {
	Strategy Strategy
	Expr     string
}

// CSS builds a CSS selector locator.
func CSS(expr string) Locator { return Locator{Strategy: StrategyCSS, Expr: expr} }

// XPath builds an XPath locator.
func XPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Expr: expr} }

func (l Locator) String() string { return fmt.Sprintf("%s(%s)", l.Strategy, l.Expr) }

// Element is a snapshot of a DOM node returned by Page.Query. Handle stays
// valid for the lifetime of the document that produced it.
type Element struct {
	Handle     string            `json:"handle"`
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes"`
	Text       string            `json:"text"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Visible    bool              `json:"visible"`
	Enabled    bool              `json:"enabled"`
}

// Attr returns an attribute value, or "" when it is absent.
func (e Element) Attr(name string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[name]
}

// Key names accepted by Page.PressKey.
type Key string

const (
	KeyTab      Key = "Tab"
	KeyEnter    Key = "Enter"
	KeyEscape   Key = "Escape"
	KeySpace    Key = "Space"
	KeyPageDown Key = "PageDown"
	KeyPageUp   Key = "PageUp"
	KeyHome     Key = "Home"
	KeyEnd      Key = "End"
)

// EnterText, appended to SendKeys input, submits the focused field.
const EnterText = "\r"

// Dialog describes a pending native alert, confirm, prompt or beforeunload dialog.
type Dialog struct {
	Type    string
	Message string
}

// Page is the browser automation capability the monkey core depends on.
// Implementations are used from a single goroutine.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	// Query runs one locator and returns every matching element, visible or
	// not. An invalid expression is reported as an error.
	Query(ctx context.Context, loc Locator) ([]Element, error)

	Click(ctx context.Context, handle string) error
	ScriptClick(ctx context.Context, handle string) error
	Clear(ctx context.Context, handle string) error
	SendKeys(ctx context.Context, handle string, text string) error
	ScrollIntoView(ctx context.Context, handle string) error
	Hover(ctx context.Context, handle string) error

	// PressKey sends a single key to the document body.
	PressKey(ctx context.Context, key Key) error

	// Evaluate runs a JS expression and decodes its result into res.
	Evaluate(ctx context.Context, script string, res interface{}) error

	PendingDialog() (Dialog, bool)
	// DismissDialog cancels the pending native dialog.
	DismissDialog(ctx context.Context) error

	Screenshot(ctx context.Context) ([]byte, error)
}
