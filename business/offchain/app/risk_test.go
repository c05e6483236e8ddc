package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

func testRiskManager(cfg RiskConfig) *RiskManager {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewRiskManager(log, cfg)
}

func defaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxConcurrentTrades: 2,
		MaxDailyTrades:      3,
		MaxDailyLossUSD:     decimal.NewFromInt(100),
		StopLossUSD:         decimal.NewFromInt(50),
	}
}

func TestRiskManager_AdmitUnderLimits(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	if err := rm.Admit(context.Background()); err != nil {
		t.Fatalf("fresh manager should admit: %v", err)
	}
}

func TestRiskManager_DailyTradeLimit(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rm.Record(ctx, decimal.NewFromInt(1))
	}
	err := rm.Admit(ctx)
	if !apperror.IsCode(err, apperror.CodeRiskLimitBreached) {
		t.Fatalf("expected RISK_LIMIT_BREACHED, got %v", err)
	}
}

func TestRiskManager_DailyLossLimit(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	ctx := context.Background()
	// Three losses under the stop-loss that together cross the daily cap.
	for i := 0; i < 3; i++ {
		rm.Record(ctx, decimal.NewFromInt(-40))
	}
	err := rm.Admit(ctx)
	if !apperror.IsCode(err, apperror.CodeRiskLimitBreached) {
		t.Fatalf("expected RISK_LIMIT_BREACHED, got %v", err)
	}
	if rm.EmergencyStopped() {
		t.Error("losses under the stop-loss must not trip the emergency stop")
	}
}

func TestRiskManager_StopLossTripsEmergencyStop(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	ctx := context.Background()
	rm.Record(ctx, decimal.NewFromInt(-60))

	if !rm.EmergencyStopped() {
		t.Fatal("single loss beyond stop-loss should trip the emergency stop")
	}
	err := rm.Admit(ctx)
	if !apperror.IsCode(err, apperror.CodeEmergencyStopped) {
		t.Fatalf("expected EMERGENCY_STOPPED, got %v", err)
	}

	rm.ClearEmergencyStop(ctx)
	if rm.EmergencyStopped() {
		t.Error("clear should reset the stop")
	}
}

func TestRiskManager_EmergencyStopSurvivesRollover(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return day }
	rm.day = rm.today()

	rm.Record(ctx, decimal.NewFromInt(-60))
	day = day.Add(2 * time.Hour) // crosses UTC midnight

	err := rm.Admit(ctx)
	if !apperror.IsCode(err, apperror.CodeEmergencyStopped) {
		t.Fatalf("stop should survive the day rollover, got %v", err)
	}
}

func TestRiskManager_CountersResetAtUTCMidnight(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return day }
	rm.day = rm.today()

	for i := 0; i < 3; i++ {
		rm.Record(ctx, decimal.NewFromInt(-10))
	}
	if err := rm.Admit(ctx); err == nil {
		t.Fatal("trade limit should block before rollover")
	}

	day = day.Add(2 * time.Hour)
	if err := rm.Admit(ctx); err != nil {
		t.Fatalf("counters should reset after rollover: %v", err)
	}
	if rm.DailyTrades() != 0 {
		t.Errorf("trade counter should be 0, got %d", rm.DailyTrades())
	}
	if !rm.DailyLossUSD().IsZero() {
		t.Errorf("loss counter should be 0, got %s", rm.DailyLossUSD())
	}
}

func TestRiskManager_ConcurrencySlots(t *testing.T) {
	rm := testRiskManager(defaultRiskConfig())

	if !rm.TryBegin() || !rm.TryBegin() {
		t.Fatal("two slots should be available")
	}
	if rm.TryBegin() {
		t.Fatal("third slot should be denied")
	}
	rm.End()
	if !rm.TryBegin() {
		t.Fatal("slot should be available after End")
	}
}
