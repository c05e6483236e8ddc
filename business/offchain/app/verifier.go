package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/flasharb-labs/flasharb/business/offchain/domain"
	"github.com/flasharb-labs/flasharb/internal/apm"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

// VerifierConfig holds the economics the verifier prices attempts with.
type VerifierConfig struct {
	PremiumPpm       uint64
	AssetPriceUSD    decimal.Decimal
	AssetDecimals    int32
	MinProfitUSD     decimal.Decimal
	GasLimitEstimate uint64
	EthPriceUSD      decimal.Decimal
}

// Verifier re-quotes an opportunity and decides whether the expected net
// profit, after premium and gas, clears the configured floor. Validate is
// read-only and idempotent, so callers may retry it freely.
type Verifier struct {
	log    logger.LoggerInterface
	quotes QuoteSource
	gas    *GasStrategist
	cfg    VerifierConfig

	tracer      apm.Tracer
	validations metric.Int64Counter
}

// NewVerifier creates a verifier.
func NewVerifier(log logger.LoggerInterface, quotes QuoteSource, gas *GasStrategist, cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{
		log:    log,
		quotes: quotes,
		gas:    gas,
		cfg:    cfg,
		tracer: apm.NewTracer("business.offchain.verifier"),
	}
	meter := otel.Meter("business.offchain.verifier")
	var err error
	if v.validations, err = meter.Int64Counter("verifier.validations.total",
		metric.WithDescription("Opportunity validations by outcome")); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate prices the opportunity against a fresh quote. A quote failure is
// returned as an error; an unprofitable route is a rejection, not an error.
func (v *Verifier) Validate(ctx context.Context, opp domain.Opportunity) (domain.Validation, error) {
	ctx, span := v.tracer.StartSpanFromContext(ctx, "verifier.validate")
	defer span.End()
	span.SetAttribute(attribute.String("opportunity.id", opp.ID.String()))

	outs, err := v.quotes.QuoteHops(ctx, opp.Asset, opp.Amount, opp.Route)
	if err != nil {
		span.NoticeError(err)
		v.count(ctx, "error")
		return domain.Validation{}, err
	}

	// The engine enforces each hop's minimum on-chain; a quote already
	// below it would only burn gas, so it is rejected here.
	for i, hop := range opp.Route.Hops {
		if hop.MinOut != nil && outs[i].Cmp(hop.MinOut) < 0 {
			v.count(ctx, "hop_below_minimum")
			return domain.Validation{Reason: "hop output below route minimum"}, nil
		}
	}

	finalOut := outs[len(outs)-1]
	gross := new(big.Int).Sub(finalOut, opp.Amount)
	premium := new(big.Int).Mul(opp.Amount, new(big.Int).SetUint64(v.cfg.PremiumPpm))
	premium.Div(premium, big.NewInt(1_000_000))
	netAsset := new(big.Int).Sub(gross, premium)

	if netAsset.Sign() <= 0 {
		v.count(ctx, "unprofitable")
		return domain.Validation{Reason: "route does not cover loan and premium"}, nil
	}

	gasCostUSD := v.gas.CostUSD(v.cfg.GasLimitEstimate, v.cfg.EthPriceUSD)
	netUSD := v.toUSD(netAsset).Sub(gasCostUSD)

	if netUSD.LessThan(v.cfg.MinProfitUSD) {
		v.count(ctx, "below_threshold")
		v.log.Debug(ctx, "opportunity below profit floor",
			"opportunity_id", opp.ID.String(),
			"net_usd", netUSD.String(),
			"floor_usd", v.cfg.MinProfitUSD.String())
		return domain.Validation{NetProfitUSD: netUSD, Reason: "net profit below threshold"}, nil
	}

	v.count(ctx, "valid")
	return domain.Validation{IsValid: true, NetProfitUSD: netUSD}, nil
}

// ToUSD converts asset base units to dollars at the configured price.
func (v *Verifier) ToUSD(assetUnits *big.Int) decimal.Decimal {
	return v.toUSD(assetUnits)
}

func (v *Verifier) toUSD(assetUnits *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(assetUnits, -v.cfg.AssetDecimals).Mul(v.cfg.AssetPriceUSD)
}

func (v *Verifier) count(ctx context.Context, outcome string) {
	v.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
