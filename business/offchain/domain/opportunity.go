// Package domain defines the off-chain side's core types: discovered
// opportunities, validation verdicts and attempt records.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
)

// Opportunity is a candidate arbitrage found by a scanner. Amount and
// MinProfit are in the borrowed asset's smallest unit.
type Opportunity struct {
	ID         uuid.UUID
	Asset      common.Address
	Amount     *big.Int
	Route      execdomain.SwapRoute
	MinProfit  *big.Int
	Discovered time.Time
}

// NewOpportunity creates an opportunity with a fresh ID.
func NewOpportunity(asset common.Address, amount *big.Int, route execdomain.SwapRoute, minProfit *big.Int) Opportunity {
	return Opportunity{
		ID:         uuid.New(),
		Asset:      asset,
		Amount:     new(big.Int).Set(amount),
		Route:      route,
		MinProfit:  new(big.Int).Set(minProfit),
		Discovered: time.Now().UTC(),
	}
}

// Validation is the verifier's verdict on an opportunity.
type Validation struct {
	IsValid      bool
	NetProfitUSD decimal.Decimal
	Reason       string
}
