package app

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGasStrategist_NoSamplesFallsBackToHalfMax(t *testing.T) {
	g := NewGasStrategist(10, 200)
	if got := g.TargetGwei(); !almostEqual(got, 100) {
		t.Errorf("expected 100, got %f", got)
	}
}

func TestGasStrategist_RisingTrendAddsTenPercent(t *testing.T) {
	g := NewGasStrategist(10, 1000)
	for _, s := range []float64{10, 20, 30} {
		g.Observe(s)
	}
	// avg 20, rising, so 22
	if got := g.TargetGwei(); !almostEqual(got, 22) {
		t.Errorf("expected 22, got %f", got)
	}
}

func TestGasStrategist_FallingTrendCutsTenPercent(t *testing.T) {
	g := NewGasStrategist(10, 1000)
	for _, s := range []float64{30, 20, 10} {
		g.Observe(s)
	}
	if got := g.TargetGwei(); !almostEqual(got, 18) {
		t.Errorf("expected 18, got %f", got)
	}
}

func TestGasStrategist_TargetCappedAtMax(t *testing.T) {
	g := NewGasStrategist(10, 200)
	g.Observe(300)
	g.Observe(400)
	if got := g.TargetGwei(); !almostEqual(got, 200) {
		t.Errorf("expected cap at 200, got %f", got)
	}
	if !g.Overloaded() {
		t.Error("average above max should report overloaded")
	}
}

func TestGasStrategist_WindowEvictsOldSamples(t *testing.T) {
	g := NewGasStrategist(2, 1000)
	g.Observe(100)
	g.Observe(50)
	g.Observe(50) // evicts the 100
	// avg 50, flat trend (last == oldest)
	if got := g.TargetGwei(); !almostEqual(got, 50) {
		t.Errorf("expected 50, got %f", got)
	}
}

func TestGasStrategist_IgnoresNonPositiveSamples(t *testing.T) {
	g := NewGasStrategist(10, 200)
	g.Observe(0)
	g.Observe(-5)
	if got := g.TargetGwei(); !almostEqual(got, 100) {
		t.Errorf("expected fallback 100, got %f", got)
	}
}

func TestGasStrategist_CostUSD(t *testing.T) {
	g := NewGasStrategist(10, 100)
	// No samples: target 50 gwei. 50 * 600000 gas = 0.03 ETH.
	got := g.CostUSD(600_000, decimal.NewFromInt(1000))
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected 30 USD, got %s", got)
	}
}
