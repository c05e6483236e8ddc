package infra

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/ratelimit"
)

// ScannerConfig describes the pair the scanner watches.
type ScannerConfig struct {
	Asset        *evm.Token
	Intermediate *evm.Token
	V2Router     common.Address
	V3Router     common.Address
	FeeTier      uint32
	LoanAmount   *big.Int
	MinProfit    *big.Int // on-chain floor in asset units
	PremiumPpm   uint64
	SlippageBps  int64 // per-hop tolerance below the quoted output
	ScansPerMin  int
}

// PoolGapScanner looks for a price gap between the constant product and
// concentrated pools of one pair. Each Scan quotes both directions fresh
// and returns at most one opportunity, never a stale candidate.
type PoolGapScanner struct {
	log     logger.LoggerInterface
	quotes  *LedgerQuoteSource
	cfg     ScannerConfig
	limiter *ratelimit.Limiter
}

// NewPoolGapScanner creates a scanner.
func NewPoolGapScanner(log logger.LoggerInterface, quotes *LedgerQuoteSource, cfg ScannerConfig) *PoolGapScanner {
	if cfg.ScansPerMin <= 0 {
		cfg.ScansPerMin = 60
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = 50
	}
	return &PoolGapScanner{
		log:     log,
		quotes:  quotes,
		cfg:     cfg,
		limiter: ratelimit.New(cfg.ScansPerMin),
	}
}

// Scan implements app.Scanner.
func (s *PoolGapScanner) Scan(ctx context.Context) ([]domain.Opportunity, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	assetAddr := s.cfg.Asset.Address()
	midAddr := s.cfg.Intermediate.Address()

	directions := []execdomain.SwapRoute{
		{Hops: []execdomain.Hop{
			{Router: s.cfg.V2Router, Kind: execdomain.KindConstantProduct, TokenOut: midAddr, MinOut: big.NewInt(1)},
			{Router: s.cfg.V3Router, Kind: execdomain.KindConcentratedLiquidity, TokenOut: assetAddr, FeeTier: s.cfg.FeeTier, MinOut: big.NewInt(1)},
		}},
		{Hops: []execdomain.Hop{
			{Router: s.cfg.V3Router, Kind: execdomain.KindConcentratedLiquidity, TokenOut: midAddr, FeeTier: s.cfg.FeeTier, MinOut: big.NewInt(1)},
			{Router: s.cfg.V2Router, Kind: execdomain.KindConstantProduct, TokenOut: assetAddr, MinOut: big.NewInt(1)},
		}},
	}

	for _, route := range directions {
		outs, err := s.quotes.QuoteHops(ctx, assetAddr, s.cfg.LoanAmount, route)
		if err != nil {
			// An illiquid direction is not a scan failure, try the other one.
			if apperror.IsCode(err, apperror.CodeQuoteFailed) {
				continue
			}
			return nil, err
		}
		finalOut := outs[len(outs)-1]
		if !s.coversCosts(finalOut) {
			continue
		}

		for i := range route.Hops {
			route.Hops[i].MinOut = s.withSlippage(outs[i])
		}
		opp := domain.NewOpportunity(assetAddr, s.cfg.LoanAmount, route, s.cfg.MinProfit)
		s.log.Debug(ctx, "opportunity discovered",
			"opportunity_id", opp.ID.String(),
			"route", route.Summary(),
			"final_out", finalOut.String())
		return []domain.Opportunity{opp}, nil
	}
	return nil, nil
}

// coversCosts checks the quoted round trip beats loan, premium and the
// on-chain profit floor.
func (s *PoolGapScanner) coversCosts(finalOut *big.Int) bool {
	premium := new(big.Int).Mul(s.cfg.LoanAmount, new(big.Int).SetUint64(s.cfg.PremiumPpm))
	premium.Div(premium, big.NewInt(1_000_000))
	need := new(big.Int).Add(s.cfg.LoanAmount, premium)
	need.Add(need, s.cfg.MinProfit)
	return finalOut.Cmp(need) >= 0
}

// withSlippage discounts a quoted output by the configured tolerance.
func (s *PoolGapScanner) withSlippage(out *big.Int) *big.Int {
	m := new(big.Int).Mul(out, big.NewInt(10_000-s.cfg.SlippageBps))
	m.Div(m, big.NewInt(10_000))
	if m.Sign() <= 0 {
		m = big.NewInt(1)
	}
	return m
}
