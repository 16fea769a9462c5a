package actions

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

// Direction is a scroll movement.
type Direction string

const (
	ScrollDown   Direction = "down"
	ScrollUp     Direction = "up"
	ScrollTop    Direction = "top"
	ScrollBottom Direction = "bottom"
	ScrollLeft   Direction = "left"
	ScrollRight  Direction = "right"
)

// Directions lists every scroll movement.
var Directions = []Direction{ScrollDown, ScrollUp, ScrollTop, ScrollBottom, ScrollLeft, ScrollRight}

const (
	minScrollDelta = 200
	maxScrollDelta = 800
)

// Scroll moves the viewport. It has no element precondition.
type Scroll struct {
	rng *rand.Rand
}

func (s *Scroll) Kind() schemas.ActionKind { return schemas.ActionScroll }

func (s *Scroll) Execute(ctx context.Context, env Env) Result {
	dir := Directions[s.rng.Intn(len(Directions))]
	delta := minScrollDelta + s.rng.Intn(maxScrollDelta-minScrollDelta+1)
	res := Result{Kind: s.Kind(), Descriptor: "scroll " + string(dir)}

	var done bool
	if err := env.Page.Evaluate(ctx, scrollScript(dir, delta), &done); err != nil {
		return res.fail(fmt.Errorf("scroll %s: %w", dir, err), classify(err))
	}
	res.Succeeded = true
	return res
}

// scrollScript returns an expression that scrolls and evaluates to true.
func scrollScript(dir Direction, delta int) string {
	var stmt string
	switch dir {
	case ScrollUp:
		stmt = fmt.Sprintf("window.scrollBy(0, -%d)", delta)
	case ScrollTop:
		stmt = "window.scrollTo(0, 0)"
	case ScrollBottom:
		stmt = "window.scrollTo(0, document.body ? document.body.scrollHeight : 0)"
	case ScrollLeft:
		stmt = fmt.Sprintf("window.scrollBy(-%d, 0)", delta)
	case ScrollRight:
		stmt = fmt.Sprintf("window.scrollBy(%d, 0)", delta)
	default:
		stmt = fmt.Sprintf("window.scrollBy(0, %d)", delta)
	}
	return fmt.Sprintf("(() => { %s; return true; })()", stmt)
}
