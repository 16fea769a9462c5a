// internal/discovery/descriptor.go
package discovery

import (
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
)

// identifyingAttributes are copied into descriptors and used for fingerprints.
var identifyingAttributes = []string{"aria-label", "autocomplete", "href", "id", "name", "placeholder", "role", "title", "type"}

const maxTextLength = 48

var hasherPool = sync.Pool{
	New: func() interface{} { return fnv.New64a() },
}

// Key identifies an element for de-duplication: two descriptors with the
// same tag at the same rounded position are the same element.
type Key struct {
	Tag  string
	X, Y int64
}

// Descriptor is the human-readable identity of a discovered element.
type Descriptor struct {
	Tag         string            `json:"tag"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Text        string            `json:"text,omitempty"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Clickable   bool              `json:"clickable"`
	Enabled     bool              `json:"enabled"`
	Fingerprint string            `json:"fingerprint"`
}

// Candidate is a live element that satisfied an intent.
type Candidate struct {
	Handle     string
	Descriptor Descriptor
}

// Key returns the de-duplication key.
func (d Descriptor) Key() Key {
	return Key{Tag: d.Tag, X: int64(math.Round(d.X)), Y: int64(math.Round(d.Y))}
}

// Attr returns an identifying attribute, or "".
func (d Descriptor) Attr(name string) string {
	return d.Attributes[name]
}

// String renders a CSS-like description such as
// `button#submit.btn.primary[type="submit"] "Sign in"`.
func (d Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.selector())
	if d.Text != "" {
		sb.WriteString(fmt.Sprintf(" %q", d.Text))
	}
	return sb.String()
}

func (d Descriptor) selector() string {
	var sb strings.Builder
	sb.WriteString(d.Tag)
	if id := d.Attributes["id"]; id != "" {
		sb.WriteString("#" + id)
	}
	if cls := d.Attributes["class"]; cls != "" {
		classes := strings.Fields(cls)
		sort.Strings(classes)
		for _, c := range classes {
			sb.WriteString("." + c)
		}
	}
	for _, attr := range identifyingAttributes {
		if attr == "id" {
			continue
		}
		if val := d.Attributes[attr]; val != "" {
			sb.WriteString(fmt.Sprintf(`[%s="%s"]`, attr, strings.ReplaceAll(val, `"`, `\"`)))
		}
	}
	return sb.String()
}

// Describe builds a descriptor from a page element.
func Describe(el browser.Element, intent Intent) Descriptor {
	attrs := make(map[string]string)
	for _, name := range identifyingAttributes {
		if v := el.Attr(name); v != "" {
			attrs[name] = v
		}
	}
	if cls := el.Attr("class"); cls != "" {
		attrs["class"] = cls
	}

	d := Descriptor{
		Tag:        strings.ToLower(el.Tag),
		Attributes: attrs,
		Text:       truncate(strings.Join(strings.Fields(el.Text), " "), maxTextLength),
		X:          el.X,
		Y:          el.Y,
		Clickable:  intent == Clickable,
		Enabled:    !isDisabled(el, intent),
	}
	d.Fingerprint = fingerprint(d.selector())
	return d
}

func fingerprint(description string) string {
	hasher := hasherPool.Get().(hash.Hash64)
	_, _ = hasher.Write([]byte(description))
	sum := strconv.FormatUint(hasher.Sum64(), 16)
	hasher.Reset()
	hasherPool.Put(hasher)
	return sum
}

// isDisabled reports whether an element cannot take the intended interaction.
// Read-only fields are disabled for text input.
func isDisabled(el browser.Element, intent Intent) bool {
	if !el.Enabled {
		return true
	}
	if _, ok := el.Attributes["disabled"]; ok {
		return true
	}
	if strings.EqualFold(el.Attr("aria-disabled"), "true") {
		return true
	}
	if intent == TextInput {
		if _, ok := el.Attributes["readonly"]; ok {
			return true
		}
	}
	return false
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
