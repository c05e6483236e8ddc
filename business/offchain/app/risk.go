package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// RiskConfig holds the limits the risk manager enforces.
type RiskConfig struct {
	MaxConcurrentTrades int
	MaxDailyTrades      int
	MaxDailyLossUSD     decimal.Decimal
	StopLossUSD         decimal.Decimal
}

// RiskManager enforces concurrency, daily trade and daily loss limits, plus
// a hard emergency stop when a single trade loses more than the stop-loss.
// Daily counters roll over lazily at UTC midnight on the next touch.
type RiskManager struct {
	log logger.LoggerInterface
	cfg RiskConfig

	mu          sync.Mutex
	day         time.Time
	dailyTrades int
	dailyLoss   decimal.Decimal
	emergency   bool

	slots chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// NewRiskManager creates a risk manager.
func NewRiskManager(log logger.LoggerInterface, cfg RiskConfig) *RiskManager {
	if cfg.MaxConcurrentTrades < 1 {
		cfg.MaxConcurrentTrades = 1
	}
	rm := &RiskManager{
		log:   log,
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxConcurrentTrades),
		now:   time.Now,
	}
	rm.day = rm.today()
	return rm
}

// Admit decides whether a new trade may proceed under the daily limits.
func (r *RiskManager) Admit(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollover(ctx)

	if r.emergency {
		return apperror.New(apperror.CodeEmergencyStopped)
	}
	if r.dailyTrades >= r.cfg.MaxDailyTrades {
		return apperror.New(apperror.CodeRiskLimitBreached,
			apperror.WithMessage("daily trade limit reached"),
			apperror.WithContext("trades", r.dailyTrades))
	}
	if r.dailyLoss.GreaterThanOrEqual(r.cfg.MaxDailyLossUSD) {
		return apperror.New(apperror.CodeRiskLimitBreached,
			apperror.WithMessage("daily loss limit reached"),
			apperror.WithContext("loss_usd", r.dailyLoss.String()))
	}
	return nil
}

// TryBegin claims a concurrency slot without blocking.
func (r *RiskManager) TryBegin() bool {
	select {
	case r.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// End releases a concurrency slot claimed by TryBegin.
func (r *RiskManager) End() {
	select {
	case <-r.slots:
	default:
	}
}

// Record accounts a completed trade. Losses feed the daily loss counter and
// a single loss beyond the stop-loss trips the emergency stop.
func (r *RiskManager) Record(ctx context.Context, profitUSD decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollover(ctx)

	r.dailyTrades++
	if profitUSD.IsNegative() {
		loss := profitUSD.Neg()
		r.dailyLoss = r.dailyLoss.Add(loss)
		if loss.GreaterThanOrEqual(r.cfg.StopLossUSD) {
			r.emergency = true
			r.log.Error(ctx, "emergency stop tripped",
				"loss_usd", loss.String(),
				"stop_loss_usd", r.cfg.StopLossUSD.String())
		}
	}
}

// EmergencyStopped reports whether the hard stop is active.
func (r *RiskManager) EmergencyStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emergency
}

// ClearEmergencyStop resets the hard stop after operator review.
func (r *RiskManager) ClearEmergencyStop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emergency = false
	r.log.Warn(ctx, "emergency stop cleared by operator")
}

// DailyTrades returns today's trade count.
func (r *RiskManager) DailyTrades() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dailyTrades
}

// DailyLossUSD returns today's cumulative loss.
func (r *RiskManager) DailyLossUSD() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dailyLoss
}

// rollover resets the daily counters when the UTC date has changed.
// The emergency stop survives rollover on purpose: it clears only by
// operator action.
func (r *RiskManager) rollover(ctx context.Context) {
	today := r.today()
	if today.Equal(r.day) {
		return
	}
	r.log.Info(ctx, "daily risk counters reset",
		"previous_day", r.day.Format("2006-01-02"),
		"trades", r.dailyTrades,
		"loss_usd", r.dailyLoss.String())
	r.day = today
	r.dailyTrades = 0
	r.dailyLoss = decimal.Zero
}

func (r *RiskManager) today() time.Time {
	return r.now().UTC().Truncate(24 * time.Hour)
}
