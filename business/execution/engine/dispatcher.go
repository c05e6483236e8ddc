package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// dispatch routes a single hop to the protocol-specific router call. The
// router-level minimum is zero: slippage is enforced by the engine against
// the hop's MinOut so a shortfall surfaces as SLIPPAGE_EXCEEDED rather than
// a router revert. The kind switch is closed on purpose.
func (e *Engine) dispatch(
	entry routerEntry,
	tokenIn, tokenOut *evm.Token,
	amountIn *big.Int,
	feeTier uint32,
	deadline uint64,
) (*big.Int, error) {
	switch entry.kind {
	case domain.KindConstantProduct:
		path := []common.Address{tokenIn.Address(), tokenOut.Address()}
		return entry.v2.SwapExactTokensForTokens(e.addr, amountIn, big.NewInt(0), path, e.addr, deadline)
	case domain.KindConcentratedLiquidity:
		return entry.v3.ExactInputSingle(e.addr, evm.ExactInputSingleParams{
			TokenIn:          tokenIn.Address(),
			TokenOut:         tokenOut.Address(),
			Fee:              feeTier,
			Recipient:        e.addr,
			Deadline:         deadline,
			AmountIn:         amountIn,
			AmountOutMinimum: big.NewInt(0),
		})
	default:
		return nil, apperror.New(apperror.CodeInvalidRouter,
			apperror.WithMessage("unsupported router kind"))
	}
}
