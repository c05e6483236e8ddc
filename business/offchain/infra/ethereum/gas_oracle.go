// Package ethereum adapts a live Ethereum RPC endpoint for the gas
// strategist. The client is guarded by a circuit breaker and a short cache
// so a flapping node neither hammers the loop nor starves it.
package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flasharb-labs/flasharb/business/offchain/app"
	"github.com/flasharb-labs/flasharb/internal/apperror"
	"github.com/flasharb-labs/flasharb/internal/cache"
	"github.com/flasharb-labs/flasharb/internal/circuitbreaker"
	"github.com/flasharb-labs/flasharb/internal/logger"
)

const gasPriceCacheTTL = 5 * time.Second

// GasOracle serves gas price observations from an RPC node.
type GasOracle struct {
	log     logger.LoggerInterface
	client  *ethclient.Client
	breaker *circuitbreaker.CircuitBreaker[*big.Int]
	prices  *cache.Cache[string, float64]
}

// NewGasOracle dials the endpoint and prepares the breaker and cache.
func NewGasOracle(ctx context.Context, log logger.LoggerInterface, url string) (*GasOracle, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("url", url))
	}
	return &GasOracle{
		log:     log,
		client:  client,
		breaker: circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		prices:  cache.New[string, float64](time.Minute),
	}, nil
}

// SuggestGasPriceGwei returns the node's suggested gas price in gwei,
// served from cache within the TTL.
func (o *GasOracle) SuggestGasPriceGwei(ctx context.Context) (float64, error) {
	if gwei, ok := o.prices.Get(ctx, "suggested"); ok {
		return gwei, nil
	}

	wei, err := o.breaker.Execute(func() (*big.Int, error) {
		return o.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		if apperror.IsCode(err, apperror.CodeCircuitOpen) {
			return 0, err
		}
		return 0, apperror.New(apperror.CodeGasEstimationFailed, apperror.WithCause(err))
	}

	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	o.prices.Set(ctx, "suggested", gwei, gasPriceCacheTTL)
	return gwei, nil
}

// Poll feeds the strategist until the context is cancelled. Failed polls
// are logged and skipped; the strategist just keeps its last window.
func (o *GasOracle) Poll(ctx context.Context, interval time.Duration, strategist *app.GasStrategist) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gwei, err := o.SuggestGasPriceGwei(ctx)
			if err != nil {
				o.log.Warn(ctx, "gas price poll failed", "error", err)
				continue
			}
			strategist.Observe(gwei)
		}
	}
}

// Close releases the RPC client and cache.
func (o *GasOracle) Close() {
	o.client.Close()
	o.prices.Close()
}
