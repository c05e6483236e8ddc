package retry

import (
	"context"
	"testing"
	"time"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 500 * time.Millisecond}, // capped
		{4, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

	calls := 0
	result, err := Do(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		if calls < p.MaxAttempts {
			return "", apperror.New(apperror.CodeServiceTimeout)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != p.MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, p.MaxAttempts)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.New(apperror.CodeEthereumRPCError)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if apperror.GetCode(err) != apperror.CodeEthereumRPCError {
		t.Errorf("code = %s, want ETHEREUM_RPC_ERROR", apperror.GetCode(err))
	}
}

func TestDo_NonTransientNotRetried(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.New(apperror.CodeInvalidParams)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (validation errors are not retried)", calls)
	}
}

func TestDo_TotalBackoffFollowsFormula(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond}

	// Expected sleeps between 4 attempts: 10ms, 20ms, 20ms (capped) = 50ms.
	want := p.Delay(0) + p.Delay(1) + p.Delay(2)

	start := time.Now()
	_, _ = Do(context.Background(), p, func(ctx context.Context) (int, error) {
		return 0, apperror.New(apperror.CodeServiceTimeout)
	})
	elapsed := time.Since(start)

	if elapsed < want {
		t.Errorf("elapsed %v < expected backoff sum %v", elapsed, want)
	}
	if elapsed > want+200*time.Millisecond {
		t.Errorf("elapsed %v far exceeds expected backoff sum %v", elapsed, want)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.New(apperror.CodeServiceTimeout)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
