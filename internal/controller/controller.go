// Package controller selects the next monkey action and shifts probability
// mass toward low-risk actions when the rolling success rate falls short of
// its target.
package controller

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/config"
	"github.com/xkilldash9x/monkey-cli/internal/outcome"
)

// sumTolerance is the allowed drift of a table's total from 1.0.
const sumTolerance = 1e-9

// WeightTable maps each action kind to its selection probability.
type WeightTable map[schemas.ActionKind]float64

// Sum returns the total probability mass.
func (w WeightTable) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// SafeMass returns the combined weight of the safe kinds.
func (w WeightTable) SafeMass() float64 {
	var s float64
	for k, v := range w {
		if k.IsSafe() {
			s += v
		}
	}
	return s
}

func (w WeightTable) clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Controller holds the adaptive selection state for one session. It is owned
// by a single control loop and is not safe for concurrent use.
type Controller struct {
	base    WeightTable
	current WeightTable

	target     float64
	margin     float64
	increment  float64
	cap        float64
	minSamples int
	adaptEvery int

	// baseSafe is the safe mass of the configured table; bias is the safe
	// mass currently in force. bias only ever grows.
	baseSafe    float64
	bias        float64
	adaptations int

	rng    *rand.Rand
	logger *zap.Logger
}

// New validates and normalizes the configured weights. A nil rng is seeded
// from cfg.Seed, or from the clock when the seed is zero.
func New(cfg config.MonkeyConfig, rng *rand.Rand, logger *zap.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller configuration: %w", err)
	}
	base, err := tableFromConfig(cfg.Weights)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		base:       base,
		current:    base.clone(),
		target:     cfg.TargetRate,
		margin:     cfg.Margin,
		increment:  cfg.SafeIncrement,
		cap:        cfg.SafeCap,
		minSamples: cfg.MinSamples,
		adaptEvery: cfg.AdaptEvery,
		baseSafe:   base.SafeMass(),
		rng:        rng,
		logger:     logger.Named("controller"),
	}
	c.bias = c.baseSafe
	return c, nil
}

// tableFromConfig parses kind names and normalizes the weights to sum to 1.
// Kinds absent from the configuration get zero weight.
func tableFromConfig(weights map[string]float64) (WeightTable, error) {
	table := make(WeightTable, len(schemas.AllActionKinds()))
	for _, k := range schemas.AllActionKinds() {
		table[k] = 0
	}
	var sum float64
	for name, w := range weights {
		kind, err := schemas.ParseActionKind(name)
		if err != nil {
			return nil, fmt.Errorf("invalid weights: %w", err)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %v for %q", w, name)
		}
		table[kind] += w
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("weights must have a positive sum")
	}
	for k := range table {
		table[k] /= sum
	}
	return table, nil
}

// Select draws an action kind from the current table. Cumulative weights are
// walked in the canonical kind order so a seeded source is reproducible.
func (c *Controller) Select() schemas.ActionKind {
	r := c.rng.Float64()
	var cumulative float64
	var last schemas.ActionKind
	for _, k := range schemas.AllActionKinds() {
		w := c.current[k]
		if w <= 0 {
			continue
		}
		last = k
		cumulative += w
		if r < cumulative {
			return k
		}
	}
	// Rounding left r just above the final cumulative sum.
	return last
}

// Observe feeds the latest running totals to the controller. When adaptation
// is due and the success rate is below target minus margin, the safe bias is
// raised by one increment (up to the cap) and the table is rebuilt. It
// reports whether the table changed.
func (c *Controller) Observe(stats outcome.Stats) bool {
	if stats.Total < c.minSamples {
		return false
	}
	if (stats.Total-c.minSamples)%c.adaptEvery != 0 {
		return false
	}
	rate := stats.SuccessRate()
	if rate >= c.target-c.margin || c.bias >= c.cap {
		return false
	}

	previous := c.bias
	c.bias = math.Min(c.cap, c.bias+c.increment)
	c.applyBias()
	c.adaptations++

	c.logger.Info("Success rate below target, shifting weight to safe actions.",
		zap.Float64("success_rate", rate),
		zap.Float64("target", c.target),
		zap.Float64("previous_safe_mass", previous),
		zap.Float64("safe_mass", c.bias),
		zap.Int("samples", stats.Total))
	return true
}

// applyBias derives the current table from the base table and the bias.
func (c *Controller) applyBias() {
	var safeKinds, riskyKinds []schemas.ActionKind
	for _, k := range schemas.AllActionKinds() {
		if k.IsSafe() {
			safeKinds = append(safeKinds, k)
		} else {
			riskyKinds = append(riskyKinds, k)
		}
	}
	riskyBase := 1 - c.baseSafe

	next := make(WeightTable, len(c.base))
	for _, k := range safeKinds {
		if c.baseSafe > 0 {
			next[k] = c.base[k] / c.baseSafe * c.bias
		} else {
			next[k] = c.bias / float64(len(safeKinds))
		}
	}
	for _, k := range riskyKinds {
		if riskyBase > 0 {
			next[k] = c.base[k] / riskyBase * (1 - c.bias)
		} else {
			next[k] = (1 - c.bias) / float64(len(riskyKinds))
		}
	}
	c.current = next
}

// Weights returns a copy of the current table.
func (c *Controller) Weights() WeightTable {
	return c.current.clone()
}

// BaseWeights returns a copy of the normalized configured table.
func (c *Controller) BaseWeights() WeightTable {
	return c.base.clone()
}

// SafeMass returns the safe bias currently in force.
func (c *Controller) SafeMass() float64 {
	return c.bias
}

// Adaptations returns how many times the table has been rebuilt.
func (c *Controller) Adaptations() int {
	return c.adaptations
}

// Describe renders the table as "kind=0.350 ..." in descending weight order.
func (w WeightTable) Describe() string {
	kinds := make([]schemas.ActionKind, 0, len(w))
	for k := range w {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if w[kinds[i]] == w[kinds[j]] {
			return kinds[i] < kinds[j]
		}
		return w[kinds[i]] > w[kinds[j]]
	})
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.3f", k, w[k])
	}
	return out
}

// valid reports whether the table is a probability distribution.
func (w WeightTable) valid() bool {
	for _, v := range w {
		if v < 0 || math.IsNaN(v) {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= sumTolerance
}
