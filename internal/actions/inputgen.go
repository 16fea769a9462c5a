package actions

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode"

	"github.com/xkilldash9x/monkey-cli/internal/discovery"
)

// Vocabulary is the word list used for search terms and synthetic identities.
var Vocabulary = []string{
	"monkey", "banana", "weather", "coffee", "laptop", "garden",
	"python", "golang", "travel", "music", "recipes", "football",
}

var genericSamples = []string{
	"QA Monkey Test",
	"automation test input",
	"hello world",
}

const (
	passwordLength = 12
	letters        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits         = "0123456789"
	symbols        = "!@#$%^&*-_"
)

// Generator produces synthetic input values from field hints.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// For picks a value suitable for the described field. The declared type
// wins; name, id and placeholder hints only decide for text-like fields.
func (g *Generator) For(d discovery.Descriptor) string {
	switch strings.ToLower(d.Attr("type")) {
	case "email":
		return g.Email()
	case "password":
		return g.Password()
	case "search":
		return g.SearchTerm()
	case "number", "range":
		return g.number()
	case "url":
		return "https://example.com"
	}

	hints := hintTokens(d)
	switch {
	case hints.any("email", "mail", "username", "user"):
		return g.Email()
	case hints.any("password", "pass", "pwd"):
		return g.Password()
	case hints.any("search", "query", "q"):
		return g.SearchTerm()
	case hints.any("url", "website"):
		return "https://example.com"
	default:
		return g.Generic()
	}
}

// Email returns an address of the form qa.<word><n>@example.com.
func (g *Generator) Email() string {
	return fmt.Sprintf("qa.%s%d@example.com", g.word(), g.rng.Intn(1000))
}

// Password returns a 12-character password with at least one upper-case
// letter, lower-case letter, digit and symbol.
func (g *Generator) Password() string {
	buf := []byte{
		letters[26+g.rng.Intn(26)],
		letters[g.rng.Intn(26)],
		digits[g.rng.Intn(len(digits))],
		symbols[g.rng.Intn(len(symbols))],
	}
	pool := letters + digits
	for len(buf) < passwordLength {
		buf = append(buf, pool[g.rng.Intn(len(pool))])
	}
	g.rng.Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
	return string(buf)
}

// SearchTerm returns a vocabulary word.
func (g *Generator) SearchTerm() string {
	return g.word()
}

// Generic returns one of the fallback samples.
func (g *Generator) Generic() string {
	switch n := g.rng.Intn(len(genericSamples) + 2); {
	case n < len(genericSamples):
		return genericSamples[n]
	case n == len(genericSamples):
		return fmt.Sprintf("Test User %d", g.rng.Intn(1000)+1)
	default:
		return g.alnum(8)
	}
}

func (g *Generator) number() string {
	return strconv.Itoa(g.rng.Intn(9999) + 1)
}

func (g *Generator) word() string {
	return Vocabulary[g.rng.Intn(len(Vocabulary))]
}

func (g *Generator) alnum(n int) string {
	pool := letters + digits
	b := make([]byte, n)
	for i := range b {
		b[i] = pool[g.rng.Intn(len(pool))]
	}
	return string(b)
}

type tokens map[string]struct{}

func (t tokens) any(words ...string) bool {
	for _, w := range words {
		if _, ok := t[w]; ok {
			return true
		}
	}
	return false
}

// hintTokens splits the naming attributes of a field into lower-case words,
// so "user_email" and "userEmail" both yield "user" and "email".
func hintTokens(d discovery.Descriptor) tokens {
	out := tokens{}
	for _, attr := range []string{"name", "id", "placeholder", "autocomplete", "aria-label"} {
		for _, w := range splitWords(d.Attr(attr)) {
			out[w] = struct{}{}
		}
	}
	return out
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
