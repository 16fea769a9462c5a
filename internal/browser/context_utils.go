// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context derived from primary that is also
// cancelled when secondary is done. Values come from primary only, which is
// where chromedp keeps the target connection; secondary supplies the
// operation deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext keeps the parent's values but drops its deadline and
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                     { return nil }
func (valueOnlyContext) Err() error                                { return nil }

// Detach returns a context that inherits values from ctx but is not
// cancelled with it. The monkey loop runs each in-flight action on a detached
// context so an interrupt lets the action finish before the loop stops.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
