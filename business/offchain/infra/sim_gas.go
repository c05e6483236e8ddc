package infra

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/flasharb-labs/flasharb/business/offchain/app"
)

// SimGasFeed produces a bounded random walk of gas prices for runs without
// an RPC endpoint.
type SimGasFeed struct {
	mu      sync.Mutex
	rng     *rand.Rand
	current float64
	min     float64
	max     float64
}

// NewSimGasFeed creates a feed walking between min and max gwei.
func NewSimGasFeed(seed int64, min, max float64) *SimGasFeed {
	return &SimGasFeed{
		rng:     rand.New(rand.NewSource(seed)),
		current: (min + max) / 2,
		min:     min,
		max:     max,
	}
}

// Next returns the next sample.
func (f *SimGasFeed) Next() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Step up to 5% of the range in either direction.
	step := (f.max - f.min) * 0.05 * (f.rng.Float64()*2 - 1)
	f.current += step
	if f.current < f.min {
		f.current = f.min
	}
	if f.current > f.max {
		f.current = f.max
	}
	return f.current
}

// Poll feeds the strategist until the context is cancelled.
func (f *SimGasFeed) Poll(ctx context.Context, interval time.Duration, strategist *app.GasStrategist) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			strategist.Observe(f.Next())
		}
	}
}
