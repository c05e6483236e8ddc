package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// V2Router swaps through constant product pools using the familiar
// swapExactTokensForTokens entrypoint. Callers approve the router, the
// router pulls the input and pays the pool.
type V2Router struct {
	chain  *Chain
	addr   common.Address
	pools  []*ConstantProductPool
	tokens map[common.Address]*Token
}

// NewV2Router creates a router over the given pools.
func NewV2Router(chain *Chain, name string, pools ...*ConstantProductPool) *V2Router {
	r := &V2Router{
		chain:  chain,
		addr:   NewAddress("router:v2:" + name),
		pools:  pools,
		tokens: make(map[common.Address]*Token),
	}
	for _, p := range pools {
		t0, t1 := p.Pair()
		r.tokens[t0.Address()] = t0
		r.tokens[t1.Address()] = t1
	}
	return r
}

// Address returns the router's ledger address.
func (r *V2Router) Address() common.Address { return r.addr }

// SwapExactTokensForTokens swaps amountIn of path[0] for path[1], sending
// the output to `to`. The caller must have approved the router for amountIn.
func (r *V2Router) SwapExactTokensForTokens(
	caller common.Address,
	amountIn, amountOutMin *big.Int,
	path []common.Address,
	to common.Address,
	deadline uint64,
) (*big.Int, error) {
	if deadline < r.chain.Timestamp() {
		return nil, apperror.New(apperror.CodeDeadlineExpired,
			apperror.WithContext("deadline", deadline),
			apperror.WithContext("now", r.chain.Timestamp()))
	}
	if len(path) != 2 {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("path must have exactly two tokens"))
	}
	tokenIn, ok := r.tokens[path[0]]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("unknown input token"),
			apperror.WithContext("token", path[0].Hex()))
	}
	var pool *ConstantProductPool
	for _, p := range r.pools {
		t0, t1 := p.Pair()
		if (t0.Address() == path[0] && t1.Address() == path[1]) ||
			(t1.Address() == path[0] && t0.Address() == path[1]) {
			pool = p
			break
		}
	}
	if pool == nil {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("no pool for pair"))
	}

	out, err := pool.Quote(tokenIn, amountIn)
	if err != nil {
		return nil, err
	}
	if out.Cmp(amountOutMin) < 0 {
		return nil, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("out", out.String()),
			apperror.WithContext("min", amountOutMin.String()))
	}

	r.chain.UseGas(GasSwap)
	if err := tokenIn.TransferFrom(r.addr, caller, pool.Address(), amountIn); err != nil {
		return nil, err
	}
	if err := outToken(pool, tokenIn).Transfer(pool.Address(), to, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExactInputSingleParams mirrors the V3 SwapRouter single-hop call.
type ExactInputSingleParams struct {
	TokenIn          common.Address
	TokenOut         common.Address
	Fee              uint32
	Recipient        common.Address
	Deadline         uint64
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// V3Router swaps through concentrated liquidity pools keyed by pair and
// fee tier.
type V3Router struct {
	chain  *Chain
	addr   common.Address
	pools  []*ConcentratedPool
	tokens map[common.Address]*Token
}

// NewV3Router creates a router over the given pools.
func NewV3Router(chain *Chain, name string, pools ...*ConcentratedPool) *V3Router {
	r := &V3Router{
		chain:  chain,
		addr:   NewAddress("router:v3:" + name),
		pools:  pools,
		tokens: make(map[common.Address]*Token),
	}
	for _, p := range pools {
		t0, t1 := p.Pair()
		r.tokens[t0.Address()] = t0
		r.tokens[t1.Address()] = t1
	}
	return r
}

// Address returns the router's ledger address.
func (r *V3Router) Address() common.Address { return r.addr }

// ExactInputSingle swaps params.AmountIn of TokenIn for TokenOut through
// the pool matching the pair and fee tier.
func (r *V3Router) ExactInputSingle(caller common.Address, params ExactInputSingleParams) (*big.Int, error) {
	if params.Deadline < r.chain.Timestamp() {
		return nil, apperror.New(apperror.CodeDeadlineExpired,
			apperror.WithContext("deadline", params.Deadline),
			apperror.WithContext("now", r.chain.Timestamp()))
	}
	tokenIn, ok := r.tokens[params.TokenIn]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("unknown input token"),
			apperror.WithContext("token", params.TokenIn.Hex()))
	}
	var pool *ConcentratedPool
	for _, p := range r.pools {
		if p.FeeTier() != params.Fee {
			continue
		}
		t0, t1 := p.Pair()
		if (t0.Address() == params.TokenIn && t1.Address() == params.TokenOut) ||
			(t1.Address() == params.TokenIn && t0.Address() == params.TokenOut) {
			pool = p
			break
		}
	}
	if pool == nil {
		return nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("no pool for pair and fee tier"),
			apperror.WithContext("fee", params.Fee))
	}

	out, err := pool.Quote(tokenIn, params.AmountIn)
	if err != nil {
		return nil, err
	}
	if out.Cmp(params.AmountOutMinimum) < 0 {
		return nil, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("out", out.String()),
			apperror.WithContext("min", params.AmountOutMinimum.String()))
	}

	r.chain.UseGas(GasSwap)
	if err := tokenIn.TransferFrom(r.addr, caller, pool.Address(), params.AmountIn); err != nil {
		return nil, err
	}
	if err := outToken(pool, tokenIn).Transfer(pool.Address(), params.Recipient, out); err != nil {
		return nil, err
	}
	return out, nil
}
