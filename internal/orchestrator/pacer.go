package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces actions out. A token bucket caps the sustained action rate
// and a uniform jitter in [min, max] is added on top of it.
type Pacer struct {
	limiter  *rate.Limiter
	min, max time.Duration
	rng      *rand.Rand
}

// NewPacer builds a pacer. A non-positive perSecond removes the rate cap.
func NewPacer(perSecond float64, min, max time.Duration, rng *rand.Rand) *Pacer {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if max < min {
		max = min
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		min:     min,
		max:     max,
		rng:     rng,
	}
}

// Delay returns the next jitter duration.
func (p *Pacer) Delay() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Wait blocks until the next action may run or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
