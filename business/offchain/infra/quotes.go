// Package infra holds the off-chain context's adapters: ledger-backed
// quotes, the pool gap scanner, the submitter and attempt reporters.
package infra

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// LedgerQuoteSource quotes routes directly against the ledger pools behind
// each whitelisted router.
type LedgerQuoteSource struct {
	pools  map[common.Address]evm.Pool // router address to its pool
	tokens map[common.Address]*evm.Token
}

// NewLedgerQuoteSource creates a quote source. routerPools maps each router
// address to the pool it trades through.
func NewLedgerQuoteSource(routerPools map[common.Address]evm.Pool, tokens []*evm.Token) *LedgerQuoteSource {
	q := &LedgerQuoteSource{
		pools:  routerPools,
		tokens: make(map[common.Address]*evm.Token, len(tokens)),
	}
	for _, t := range tokens {
		q.tokens[t.Address()] = t
	}
	return q
}

// QuoteRoute implements app.QuoteSource: it walks the route hop by hop and
// returns the final output amount.
func (q *LedgerQuoteSource) QuoteRoute(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) (*big.Int, error) {
	outs, err := q.QuoteHops(ctx, asset, amount, route)
	if err != nil {
		return nil, err
	}
	return outs[len(outs)-1], nil
}

// QuoteHops returns the expected output of every hop. The scanner derives
// per-hop minimums from it and the verifier checks quotes against them.
func (q *LedgerQuoteSource) QuoteHops(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) ([]*big.Int, error) {
	if len(route.Hops) == 0 {
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithMessage("empty route"))
	}
	tokenIn, ok := q.tokens[asset]
	if !ok {
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithMessage("unknown asset"),
			apperror.WithContext("asset", asset.Hex()))
	}

	outs := make([]*big.Int, 0, len(route.Hops))
	amountIn := new(big.Int).Set(amount)
	for i, hop := range route.Hops {
		pool, ok := q.pools[hop.Router]
		if !ok {
			return nil, apperror.New(apperror.CodeQuoteFailed,
				apperror.WithMessage("no pool for router"),
				apperror.WithContext("router", hop.Router.Hex()))
		}
		out, err := pool.Quote(tokenIn, amountIn)
		if err != nil {
			return nil, apperror.New(apperror.CodeQuoteFailed,
				apperror.WithCause(err),
				apperror.WithContext("hop", i))
		}
		next, ok := q.tokens[hop.TokenOut]
		if !ok {
			return nil, apperror.New(apperror.CodeQuoteFailed,
				apperror.WithMessage("unknown token in route"),
				apperror.WithContext("token", hop.TokenOut.Hex()))
		}
		outs = append(outs, out)
		tokenIn = next
		amountIn = out
	}
	return outs, nil
}
