package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/retry"
)

type stubScanner struct {
	mu   sync.Mutex
	opps []domain.Opportunity
}

func (s *stubScanner) Scan(ctx context.Context) ([]domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Opportunity, len(s.opps))
	copy(out, s.opps)
	return out, nil
}

type stubSubmitter struct {
	mu     sync.Mutex
	result execdomain.ExecutionResult
	calls  int
}

func (s *stubSubmitter) Submit(ctx context.Context, opp domain.Opportunity) (execdomain.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, nil
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubReporter struct {
	mu   sync.Mutex
	recs []domain.AttemptRecord
	ch   chan domain.AttemptRecord
}

func newStubReporter() *stubReporter {
	return &stubReporter{ch: make(chan domain.AttemptRecord, 16)}
}

func (s *stubReporter) Report(ctx context.Context, rec domain.AttemptRecord) {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	select {
	case s.ch <- rec:
	default:
	}
}

func newTestOrchestrator(t *testing.T, scanner Scanner, quotes QuoteSource, risk *RiskManager, submitter Submitter, reporter Reporter) *Orchestrator {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	gas := NewGasStrategist(10, 100)
	v, err := NewVerifier(log, quotes, gas, VerifierConfig{
		PremiumPpm:       900,
		AssetPriceUSD:    decimal.NewFromInt(1),
		AssetDecimals:    6,
		MinProfitUSD:     decimal.NewFromInt(5),
		GasLimitEstimate: 600_000,
		EthPriceUSD:      decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	o, err := NewOrchestrator(log, scanner, v, risk, gas, submitter, reporter, OrchestratorConfig{
		ScanInterval: 5 * time.Millisecond,
		Retry:        retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond},
		EthPriceUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestOrchestrator_SubmitsValidOpportunity(t *testing.T) {
	scanner := &stubScanner{opps: []domain.Opportunity{testOpportunity(1_000_000_000)}}
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	risk := testRiskManager(defaultRiskConfig())
	submitter := &stubSubmitter{result: execdomain.ExecutionResult{
		Success: true,
		Profit:  big.NewInt(39_100_000),
		GasUsed: 500_000,
	}}
	reporter := newStubReporter()

	o := newTestOrchestrator(t, scanner, quotes, risk, submitter, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	select {
	case rec := <-reporter.ch:
		if !rec.Success {
			t.Errorf("expected successful record, got %+v", rec)
		}
		// 39.1 profit minus 25 USD gas (50 gwei * 500k gas at 1000 USD/ETH).
		if !rec.ProfitUSD.Equal(decimal.RequireFromString("14.1")) {
			t.Errorf("expected profit 14.1 USD, got %s", rec.ProfitUSD)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no attempt reported")
	}
	o.Stop()

	if risk.DailyTrades() == 0 {
		t.Error("completed trade should be recorded")
	}
}

func TestOrchestrator_SkipsUnprofitableOpportunity(t *testing.T) {
	scanner := &stubScanner{opps: []domain.Opportunity{testOpportunity(1_000_000_000)}}
	quotes := &stubQuotes{finalOut: big.NewInt(1_000_000_000)} // no edge
	risk := testRiskManager(defaultRiskConfig())
	submitter := &stubSubmitter{}
	reporter := newStubReporter()

	o := newTestOrchestrator(t, scanner, quotes, risk, submitter, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	o.Stop()

	if submitter.callCount() != 0 {
		t.Errorf("unprofitable opportunity should not submit, got %d calls", submitter.callCount())
	}
}

func TestOrchestrator_EmergencyStopBlocksSubmissions(t *testing.T) {
	scanner := &stubScanner{opps: []domain.Opportunity{testOpportunity(1_000_000_000)}}
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	risk := testRiskManager(defaultRiskConfig())
	risk.Record(context.Background(), decimal.NewFromInt(-60)) // trips the stop
	submitter := &stubSubmitter{}
	reporter := newStubReporter()

	o := newTestOrchestrator(t, scanner, quotes, risk, submitter, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	o.Stop()

	if submitter.callCount() != 0 {
		t.Errorf("emergency stop should block submissions, got %d calls", submitter.callCount())
	}
}

func TestOrchestrator_RevertedSubmissionCostsGas(t *testing.T) {
	scanner := &stubScanner{opps: []domain.Opportunity{testOpportunity(1_000_000_000)}}
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	risk := testRiskManager(defaultRiskConfig())
	submitter := &stubSubmitter{result: execdomain.ExecutionResult{
		Success:      false,
		Profit:       big.NewInt(0),
		GasUsed:      500_000,
		RevertReason: "SLIPPAGE_EXCEEDED",
	}}
	reporter := newStubReporter()

	o := newTestOrchestrator(t, scanner, quotes, risk, submitter, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	select {
	case rec := <-reporter.ch:
		if rec.Success {
			t.Error("expected failed record")
		}
		if rec.Err != "SLIPPAGE_EXCEEDED" {
			t.Errorf("expected revert reason, got %q", rec.Err)
		}
		if !rec.ProfitUSD.IsNegative() {
			t.Errorf("reverted attempt should book the gas cost as a loss, got %s", rec.ProfitUSD)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no attempt reported")
	}
	o.Stop()
}

func TestOrchestrator_StopWaitsForInFlightWork(t *testing.T) {
	scanner := &stubScanner{opps: []domain.Opportunity{testOpportunity(1_000_000_000)}}
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	risk := testRiskManager(defaultRiskConfig())
	submitter := &stubSubmitter{result: execdomain.ExecutionResult{
		Success: true,
		Profit:  big.NewInt(39_100_000),
		GasUsed: 500_000,
	}}
	reporter := newStubReporter()

	o := newTestOrchestrator(t, scanner, quotes, risk, submitter, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	<-reporter.ch
	o.Stop()
	calls := submitter.callCount()
	time.Sleep(30 * time.Millisecond)
	if submitter.callCount() != calls {
		t.Error("no submissions should start after Stop returns")
	}
}
