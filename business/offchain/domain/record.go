package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttemptRecord is the audit trail entry for one submission, successful or
// not.
type AttemptRecord struct {
	Timestamp     time.Time
	OpportunityID uuid.UUID
	RouteSummary  string
	Success       bool
	ProfitUSD     decimal.Decimal
	GasUsed       uint64
	Err           string
}
