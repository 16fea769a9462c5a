package schemas

import (
	"fmt"
	"strings"
	"time"
)

// -- Action Kinds --

// ActionKind is one of the fixed monkey action types.
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionInput    ActionKind = "input"
	ActionScroll   ActionKind = "scroll"
	ActionHover    ActionKind = "hover"
	ActionKeypress ActionKind = "keypress"
)

// AllActionKinds returns every action kind in canonical order.
func AllActionKinds() []ActionKind {
	return []ActionKind{ActionClick, ActionInput, ActionScroll, ActionHover, ActionKeypress}
}

// IsSafe reports whether the kind is one of the low-risk actions
// (scroll, hover, keypress).
func (k ActionKind) IsSafe() bool {
	switch k {
	case ActionScroll, ActionHover, ActionKeypress:
		return true
	default:
		return false
	}
}

// ParseActionKind converts a config or CLI string into an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllActionKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// -- Error Taxonomy --

// ErrorKind classifies why an action or page failed.
type ErrorKind string

const (
	ErrorNone ErrorKind = ""
	// ErrorNotFound: discovery yielded no eligible element.
	ErrorNotFound ErrorKind = "not_found"
	// ErrorIntercepted: a direct click was blocked and recovered by the script fallback.
	ErrorIntercepted ErrorKind = "intercepted"
	// ErrorTransient: a stale element, timing race or similar interaction fault.
	ErrorTransient ErrorKind = "transient"
	// ErrorPageLoad: navigation failed and the page was abandoned.
	ErrorPageLoad ErrorKind = "page_load"
	// ErrorSetup: the browser or session could not be created.
	ErrorSetup ErrorKind = "setup"
)

// -- Outcomes --

// ActionOutcome is the immutable record of one attempted action.
type ActionOutcome struct {
	Timestamp  time.Time  `json:"timestamp"`
	Kind       ActionKind `json:"kind"`
	URL        string     `json:"url"`
	Succeeded  bool       `json:"succeeded"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  ErrorKind  `json:"error_kind,omitempty"`
	Element    string     `json:"element,omitempty"`
	Screenshot string     `json:"screenshot,omitempty"`
}

// PageOutcome records the result of exercising one target page.
type PageOutcome struct {
	URL       string    `json:"url"`
	StartedAt time.Time `json:"started_at"`
	Loaded    bool      `json:"loaded"`
	Error     string    `json:"error,omitempty"`
	Actions   int       `json:"actions"`
	Succeeded int       `json:"succeeded"`
}
