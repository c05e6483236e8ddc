// Package app holds the off-chain application services: scanning ports,
// profit verification, risk limits, gas strategy and the orchestrator that
// ties them together.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/offchain/domain"
)

// Scanner discovers candidate opportunities. Each call returns a fresh
// batch; implementations must not hand back stale candidates.
type Scanner interface {
	Scan(ctx context.Context) ([]domain.Opportunity, error)
}

// QuoteSource re-quotes a route against current pool state. QuoteRoute
// returns the final output amount in the borrowed asset; QuoteHops returns
// the expected output of every hop.
type QuoteSource interface {
	QuoteRoute(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) (*big.Int, error)
	QuoteHops(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) ([]*big.Int, error)
}

// Submitter executes an opportunity and reports the realized outcome.
type Submitter interface {
	Submit(ctx context.Context, opp domain.Opportunity) (execdomain.ExecutionResult, error)
}

// Reporter records attempt outcomes.
type Reporter interface {
	Report(ctx context.Context, rec domain.AttemptRecord)
}
