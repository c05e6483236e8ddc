package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	execdomain "github.com/flasharb-labs/flasharb/business/execution/domain"
	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

type stubQuotes struct {
	finalOut *big.Int
	hopOuts  []*big.Int // optional; defaults to finalOut for every hop
	err      error
	calls    int
}

func (s *stubQuotes) QuoteRoute(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) (*big.Int, error) {
	outs, err := s.QuoteHops(ctx, asset, amount, route)
	if err != nil {
		return nil, err
	}
	return outs[len(outs)-1], nil
}

func (s *stubQuotes) QuoteHops(ctx context.Context, asset common.Address, amount *big.Int, route execdomain.SwapRoute) ([]*big.Int, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	outs := make([]*big.Int, len(route.Hops))
	for i := range outs {
		if s.hopOuts != nil {
			outs[i] = new(big.Int).Set(s.hopOuts[i])
		} else {
			outs[i] = new(big.Int).Set(s.finalOut)
		}
	}
	return outs, nil
}

func testOpportunity(amount int64) domain.Opportunity {
	asset := common.HexToAddress("0x01")
	route := execdomain.SwapRoute{Hops: []execdomain.Hop{
		{Router: common.HexToAddress("0xa1"), Kind: execdomain.KindConstantProduct, TokenOut: common.HexToAddress("0x02"), MinOut: big.NewInt(1)},
		{Router: common.HexToAddress("0xa2"), Kind: execdomain.KindConcentratedLiquidity, TokenOut: asset, FeeTier: 3000, MinOut: big.NewInt(1)},
	}}
	return domain.NewOpportunity(asset, big.NewInt(amount), route, big.NewInt(1))
}

func newTestVerifier(t *testing.T, quotes QuoteSource) *Verifier {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	// Gas target is a deterministic 50 gwei (no samples, max 100), which at
	// 600k gas and 1000 USD/ETH prices an attempt at exactly 30 USD.
	gas := NewGasStrategist(10, 100)
	v, err := NewVerifier(log, quotes, gas, VerifierConfig{
		PremiumPpm:       900,
		AssetPriceUSD:    decimal.NewFromInt(1),
		AssetDecimals:    6,
		MinProfitUSD:     decimal.NewFromInt(5),
		GasLimitEstimate: 600_000,
		EthPriceUSD:      decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerifier_AcceptsProfitableRoute(t *testing.T) {
	// Borrow 1000.000000: premium 0.9, gas 30, gross 40 leaves 9.1 net.
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	v := newTestVerifier(t, quotes)

	res, err := v.Validate(context.Background(), testOpportunity(1_000_000_000))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid, got reason %q", res.Reason)
	}
	if !res.NetProfitUSD.Equal(decimal.RequireFromString("9.1")) {
		t.Errorf("expected net 9.1, got %s", res.NetProfitUSD)
	}
}

func TestVerifier_RejectsBelowThreshold(t *testing.T) {
	// Gross 31 leaves 0.1 net after premium and gas, under the 5 USD floor.
	quotes := &stubQuotes{finalOut: big.NewInt(1_031_000_000)}
	v := newTestVerifier(t, quotes)

	res, err := v.Validate(context.Background(), testOpportunity(1_000_000_000))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.IsValid {
		t.Fatal("expected rejection")
	}
	if res.Reason == "" {
		t.Error("rejection should carry a reason")
	}
}

func TestVerifier_RejectsWhenLoanNotCovered(t *testing.T) {
	quotes := &stubQuotes{finalOut: big.NewInt(1_000_000_000)} // gross zero
	v := newTestVerifier(t, quotes)

	res, err := v.Validate(context.Background(), testOpportunity(1_000_000_000))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.IsValid {
		t.Fatal("expected rejection")
	}
}

func TestVerifier_RejectsHopBelowRouteMinimum(t *testing.T) {
	// The final output clears every USD check, but the intermediate hop
	// quotes under its minimum: on-chain this would revert, so skip it.
	quotes := &stubQuotes{hopOuts: []*big.Int{big.NewInt(5), big.NewInt(1_040_000_000)}}
	v := newTestVerifier(t, quotes)

	opp := testOpportunity(1_000_000_000)
	opp.Route.Hops[0].MinOut = big.NewInt(10)

	res, err := v.Validate(context.Background(), opp)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.IsValid {
		t.Fatal("expected rejection")
	}
	if res.Reason != "hop output below route minimum" {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestVerifier_PropagatesQuoteFailure(t *testing.T) {
	quotes := &stubQuotes{err: apperror.New(apperror.CodeQuoteFailed)}
	v := newTestVerifier(t, quotes)

	_, err := v.Validate(context.Background(), testOpportunity(1_000_000_000))
	if !apperror.IsCode(err, apperror.CodeQuoteFailed) {
		t.Fatalf("expected QUOTE_FAILED, got %v", err)
	}
}

func TestVerifier_ValidateIsIdempotent(t *testing.T) {
	quotes := &stubQuotes{finalOut: big.NewInt(1_040_000_000)}
	v := newTestVerifier(t, quotes)
	opp := testOpportunity(1_000_000_000)

	first, err := v.Validate(context.Background(), opp)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := v.Validate(context.Background(), opp)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.IsValid != second.IsValid || !first.NetProfitUSD.Equal(second.NetProfitUSD) {
		t.Errorf("repeated validation diverged: %+v vs %+v", first, second)
	}
}
