package app

import (
	"sync"

	"github.com/shopspring/decimal"
)

// GasStrategist keeps a sliding window of gas price observations and turns
// them into a submission target. The target follows the window average,
// nudged 10% up or down with the short-term trend and capped at the
// configured maximum.
type GasStrategist struct {
	mu       sync.Mutex
	window   []float64
	next     int
	filled   int
	maxGwei  float64
	lastSeen float64
}

// NewGasStrategist creates a strategist with the given window size.
func NewGasStrategist(windowSize int, maxGwei float64) *GasStrategist {
	if windowSize < 1 {
		windowSize = 1
	}
	return &GasStrategist{
		window:  make([]float64, windowSize),
		maxGwei: maxGwei,
	}
}

// Observe records a gas price sample in gwei.
func (g *GasStrategist) Observe(gwei float64) {
	if gwei <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window[g.next] = gwei
	g.next = (g.next + 1) % len(g.window)
	if g.filled < len(g.window) {
		g.filled++
	}
	g.lastSeen = gwei
}

// TargetGwei returns the gas price to submit at. With no observations it
// falls back to half the maximum.
func (g *GasStrategist) TargetGwei() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.filled == 0 {
		return g.maxGwei / 2
	}
	var sum float64
	for i := 0; i < g.filled; i++ {
		sum += g.window[i]
	}
	avg := sum / float64(g.filled)

	target := avg
	if g.filled >= 2 {
		oldest := g.window[g.oldestIndex()]
		switch {
		case g.lastSeen > oldest:
			target = avg * 1.10
		case g.lastSeen < oldest:
			target = avg * 0.90
		}
	}
	if target > g.maxGwei {
		target = g.maxGwei
	}
	return target
}

// Overloaded reports whether the current window average exceeds the
// configured maximum, meaning submissions should wait.
func (g *GasStrategist) Overloaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.filled == 0 {
		return false
	}
	var sum float64
	for i := 0; i < g.filled; i++ {
		sum += g.window[i]
	}
	return sum/float64(g.filled) > g.maxGwei
}

// CostUSD estimates the dollar cost of one attempt at the current target.
func (g *GasStrategist) CostUSD(gasLimit uint64, ethPriceUSD decimal.Decimal) decimal.Decimal {
	gwei := decimal.NewFromFloat(g.TargetGwei())
	// gwei * limit * 1e-9 = ETH spent
	eth := gwei.Mul(decimal.NewFromUint64(gasLimit)).Shift(-9)
	return eth.Mul(ethPriceUSD)
}

func (g *GasStrategist) oldestIndex() int {
	if g.filled < len(g.window) {
		return 0
	}
	return g.next
}
