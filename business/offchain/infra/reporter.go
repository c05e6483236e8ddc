package infra

import (
	"context"
	"sync"

	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// LogReporter writes attempt records to the structured log and keeps the
// most recent ones in memory for inspection.
type LogReporter struct {
	log logger.LoggerInterface

	mu     sync.Mutex
	recent []domain.AttemptRecord
	limit  int
}

// NewLogReporter creates a reporter retaining up to limit records.
func NewLogReporter(log logger.LoggerInterface, limit int) *LogReporter {
	if limit < 1 {
		limit = 100
	}
	return &LogReporter{log: log, limit: limit}
}

// Report implements app.Reporter.
func (r *LogReporter) Report(ctx context.Context, rec domain.AttemptRecord) {
	if rec.Success {
		r.log.Info(ctx, "attempt recorded",
			"opportunity_id", rec.OpportunityID.String(),
			"route", rec.RouteSummary,
			"profit_usd", rec.ProfitUSD.String(),
			"gas_used", rec.GasUsed)
	} else {
		r.log.Warn(ctx, "failed attempt recorded",
			"opportunity_id", rec.OpportunityID.String(),
			"route", rec.RouteSummary,
			"error", rec.Err,
			"gas_used", rec.GasUsed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = append(r.recent, rec)
	if len(r.recent) > r.limit {
		r.recent = r.recent[len(r.recent)-r.limit:]
	}
}

// Recent returns a copy of the retained records, oldest first.
func (r *LogReporter) Recent() []domain.AttemptRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AttemptRecord, len(r.recent))
	copy(out, r.recent)
	return out
}
