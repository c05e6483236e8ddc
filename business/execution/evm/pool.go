package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Pool quotes swaps over a token pair. Pools hold no state of their own:
// reserves are the pool address's token balances, which the chain journal
// already covers.
type Pool interface {
	Address() common.Address
	Pair() (*Token, *Token)
	FeeTier() uint32
	Quote(tokenIn *Token, amountIn *big.Int) (*big.Int, error)
}

// ConstantProductPool is a Uniswap V2 style x*y=k pool with a 0.3% input fee.
type ConstantProductPool struct {
	addr   common.Address
	token0 *Token
	token1 *Token
}

// NewConstantProductPool creates a pool over the pair.
func NewConstantProductPool(name string, token0, token1 *Token) *ConstantProductPool {
	return &ConstantProductPool{
		addr:   NewAddress("pool:cp:" + name),
		token0: token0,
		token1: token1,
	}
}

func (p *ConstantProductPool) Address() common.Address { return p.addr }
func (p *ConstantProductPool) Pair() (*Token, *Token)  { return p.token0, p.token1 }
func (p *ConstantProductPool) FeeTier() uint32         { return 0 }

// Quote returns the output for amountIn using the 997/1000 fee formula:
// out = in*997*reserveOut / (reserveIn*1000 + in*997).
func (p *ConstantProductPool) Quote(tokenIn *Token, amountIn *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := reserves(p, tokenIn)
	if err != nil {
		return nil, err
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	den.Add(den, inWithFee)
	out := num.Div(num, den)
	if out.Sign() == 0 || out.Cmp(reserveOut) >= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool", p.addr.Hex()))
	}
	return out, nil
}

// ConcentratedPool is a simplified Uniswap V3 style pool: the fee tier is
// skimmed off the input in parts per million, then the remainder trades
// against the pool's reserves.
type ConcentratedPool struct {
	addr    common.Address
	token0  *Token
	token1  *Token
	feeTier uint32
}

// NewConcentratedPool creates a fee-tiered pool over the pair.
func NewConcentratedPool(name string, token0, token1 *Token, feeTier uint32) *ConcentratedPool {
	return &ConcentratedPool{
		addr:    NewAddress("pool:cl:" + name),
		token0:  token0,
		token1:  token1,
		feeTier: feeTier,
	}
}

func (p *ConcentratedPool) Address() common.Address { return p.addr }
func (p *ConcentratedPool) Pair() (*Token, *Token)  { return p.token0, p.token1 }
func (p *ConcentratedPool) FeeTier() uint32         { return p.feeTier }

// Quote returns the output after skimming the fee tier off the input.
func (p *ConcentratedPool) Quote(tokenIn *Token, amountIn *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := reserves(p, tokenIn)
	if err != nil {
		return nil, err
	}
	effIn := new(big.Int).Mul(amountIn, big.NewInt(1_000_000-int64(p.feeTier)))
	effIn.Div(effIn, big.NewInt(1_000_000))
	num := new(big.Int).Mul(effIn, reserveOut)
	den := new(big.Int).Add(reserveIn, effIn)
	out := num.Div(num, den)
	if out.Sign() == 0 || out.Cmp(reserveOut) >= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool", p.addr.Hex()))
	}
	return out, nil
}

// reserves resolves the in/out reserves for a pool given the input token.
func reserves(p Pool, tokenIn *Token) (reserveIn, reserveOut *big.Int, err error) {
	token0, token1 := p.Pair()
	var tokenOut *Token
	switch tokenIn.Address() {
	case token0.Address():
		tokenOut = token1
	case token1.Address():
		tokenOut = token0
	default:
		return nil, nil, apperror.New(apperror.CodeInvalidParams,
			apperror.WithMessage("token not in pool"),
			apperror.WithContext("token", tokenIn.Address().Hex()))
	}
	reserveIn = tokenIn.BalanceOf(p.Address())
	reserveOut = tokenOut.BalanceOf(p.Address())
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool", p.Address().Hex()))
	}
	return reserveIn, reserveOut, nil
}

// outToken returns the pool-side token opposite to tokenIn. Callers must
// have validated membership via Quote or reserves first.
func outToken(p Pool, tokenIn *Token) *Token {
	token0, token1 := p.Pair()
	if tokenIn.Address() == token0.Address() {
		return token1
	}
	return token0
}
