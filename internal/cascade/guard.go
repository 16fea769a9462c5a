package cascade

import (
	"context"

	"go.uber.org/zap"
)

// Guard escalates to the forced cleanup when sweeps keep leaving an
// obstruction behind on the same page load.
type Guard struct {
	cascade    *Cascade
	forceAfter int
	failures   int
}

// Sweep runs a cascade sweep and then probes the page. A sweep that leaves
// an obstruction counts as a failure; after forceAfter consecutive failures
// the forced cleanup runs and the count starts over. A clean probe also
// resets the count.
func (g *Guard) Sweep(ctx context.Context) Report {
	rep := g.cascade.Sweep(ctx)
	if ctx.Err() != nil {
		return rep
	}
	if !g.cascade.Obstructed(ctx) {
		g.failures = 0
		return rep
	}

	g.failures++
	g.cascade.logger.Debug("Obstruction persists after sweep.", zap.Int("consecutive_failures", g.failures))
	if g.failures < g.forceAfter {
		return rep
	}

	res := g.cascade.ForceCleanup(ctx)
	rep.Results = append(rep.Results, res)
	rep.Forced = true
	rep.Acted = rep.Acted || res.Acted
	g.failures = 0
	return rep
}

// Failures returns the current count of consecutive failed sweeps.
func (g *Guard) Failures() int {
	return g.failures
}

// Reset clears the failure count. Call it after every navigation.
func (g *Guard) Reset() {
	g.failures = 0
}
