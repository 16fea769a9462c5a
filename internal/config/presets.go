package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Mode is a named preset for run length and pacing.
type Mode struct {
	Name           string
	ActionsPerPage int
	MinDelay       time.Duration
	MaxDelay       time.Duration
	PostLoadWait   time.Duration
}

var modes = map[string]Mode{
	"lightning": {Name: "lightning", ActionsPerPage: 2, MinDelay: 100 * time.Millisecond, MaxDelay: 200 * time.Millisecond, PostLoadWait: time.Second},
	"quick":     {Name: "quick", ActionsPerPage: 5, MinDelay: 200 * time.Millisecond, MaxDelay: 400 * time.Millisecond, PostLoadWait: 1500 * time.Millisecond},
	"standard":  {Name: "standard", ActionsPerPage: 8, MinDelay: 300 * time.Millisecond, MaxDelay: 600 * time.Millisecond, PostLoadWait: 2 * time.Second},
	"extended":  {Name: "extended", ActionsPerPage: 12, MinDelay: 500 * time.Millisecond, MaxDelay: time.Second, PostLoadWait: 2 * time.Second},
}

// LookupMode returns the preset called name.
func LookupMode(name string) (Mode, error) {
	m, ok := modes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Mode{}, fmt.Errorf("unknown mode %q (want one of %s)", name, strings.Join(ModeNames(), ", "))
	}
	return m, nil
}

// ModeNames lists the presets in alphabetical order.
func ModeNames() []string {
	names := make([]string, 0, len(modes))
	for n := range modes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var allProfileURLs = []string{
	"https://example.com",
	"https://httpbin.org/forms/post",
	"https://the-internet.herokuapp.com/login",
	"https://demoqa.com/elements",
	"https://www.google.com",
	"https://github.com",
}

var profiles = map[string][]string{
	"quick":         allProfileURLs[:3],
	"comprehensive": allProfileURLs,
	"extended":      allProfileURLs,
}

// ProfileURLs returns a copy of the URL set for the named profile.
func ProfileURLs(name string) ([]string, error) {
	urls, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return append([]string(nil), urls...), nil
}

// NormalizeURL trims raw and prefixes https:// when no scheme is given.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
