// Package offchain hosts the bot side of the system: scanning, profit
// verification, risk limits, gas strategy and the orchestrator, wired
// against the execution context's ledger.
package offchain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	executiondi "github.com/flasharb-labs/flasharb/business/execution/di"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/business/offchain/app"
	offchaindi "github.com/flasharb-labs/flasharb/business/offchain/di"
	"github.com/flasharb-labs/flasharb/business/offchain/infra"
	"github.com/flasharb-labs/flasharb/business/offchain/infra/ethereum"
	"github.com/flasharb-labs/flasharb/internal/di"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/monolith"
	"github.com/flasharb-labs/flasharb/internal/retry"
)

// Module builds the off-chain context. It must be registered after the
// execution module, whose services it resolves.
type Module struct {
	log          logger.LoggerInterface
	orchestrator *app.Orchestrator
	gas          *app.GasStrategist
	oracle       *ethereum.GasOracle
	simFeed      *infra.SimGasFeed
	rpcURL       string
}

// NewModule creates the off-chain module.
func NewModule() *Module { return &Module{} }

// Name implements monolith.Module.
func (m *Module) Name() string { return "offchain" }

// RegisterServices implements monolith.Module.
func (m *Module) RegisterServices(mono *monolith.Monolith) error {
	cfg := mono.Config()
	m.log = mono.Logger()
	m.rpcURL = cfg.Ethereum.HTTPURL
	c := mono.Services()

	eng := di.GetToken(c, executiondi.EngineToken)
	asset := di.GetToken(c, executiondi.AssetToken)
	weth := di.GetToken(c, executiondi.IntermediateToken)
	v2 := di.GetToken(c, executiondi.V2RouterToken)
	v3 := di.GetToken(c, executiondi.V3RouterToken)
	cp := di.GetToken(c, executiondi.CPPoolToken)
	cl := di.GetToken(c, executiondi.CLPoolToken)

	quotes := infra.NewLedgerQuoteSource(map[common.Address]evm.Pool{
		v2.Address(): cp,
		v3.Address(): cl,
	}, []*evm.Token{asset, weth})

	// Express the off-chain USD floor in asset units for the on-chain check.
	minProfitUnits := cfg.Arbitrage.MinProfitThresholdUSDDecimal().
		Div(cfg.Arbitrage.AssetPriceUSDDecimal()).
		Shift(cfg.Arbitrage.AssetDecimals).
		BigInt()

	scanner := infra.NewPoolGapScanner(m.log, quotes, infra.ScannerConfig{
		Asset:        asset,
		Intermediate: weth,
		V2Router:     v2.Address(),
		V3Router:     v3.Address(),
		FeeTier:      cl.FeeTier(),
		LoanAmount:   cfg.Arbitrage.LoanAmountRaw().BigInt(),
		MinProfit:    minProfitUnits,
		PremiumPpm:   cfg.Engine.PremiumPpm,
		SlippageBps:  50,
		ScansPerMin:  600,
	})

	m.gas = app.NewGasStrategist(cfg.Gas.WindowSize, cfg.Gas.MaxGasPriceGwei)

	verifier, err := app.NewVerifier(m.log, quotes, m.gas, app.VerifierConfig{
		PremiumPpm:       cfg.Engine.PremiumPpm,
		AssetPriceUSD:    cfg.Arbitrage.AssetPriceUSDDecimal(),
		AssetDecimals:    cfg.Arbitrage.AssetDecimals,
		MinProfitUSD:     cfg.Arbitrage.MinProfitThresholdUSDDecimal(),
		GasLimitEstimate: cfg.Gas.GasLimitEstimate,
		EthPriceUSD:      decimal.NewFromFloat(cfg.Gas.EthPriceUSD),
	})
	if err != nil {
		return err
	}

	risk := app.NewRiskManager(m.log, app.RiskConfig{
		MaxConcurrentTrades: cfg.Risk.MaxConcurrentTrades,
		MaxDailyTrades:      cfg.Risk.MaxDailyTrades,
		MaxDailyLossUSD:     cfg.Risk.MaxDailyLossUSDDecimal(),
		StopLossUSD:         cfg.Risk.StopLossUSDDecimal(),
	})

	submitter := infra.NewLedgerSubmitter(m.log, mono.Chain(), eng, eng.Owner())
	reporter := infra.NewLogReporter(m.log, 200)

	orchestrator, err := app.NewOrchestrator(m.log, scanner, verifier, risk, m.gas, submitter, reporter, app.OrchestratorConfig{
		ScanInterval: cfg.Orchestrator.ScanInterval,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		EthPriceUSD: decimal.NewFromFloat(cfg.Gas.EthPriceUSD),
	})
	if err != nil {
		return err
	}
	m.orchestrator = orchestrator

	di.RegisterToken(c, offchaindi.GasStrategistToken, func(di.ServiceRegistry) *app.GasStrategist { return m.gas })
	di.RegisterToken(c, offchaindi.RiskManagerToken, func(di.ServiceRegistry) *app.RiskManager { return risk })
	di.RegisterToken(c, offchaindi.VerifierToken, func(di.ServiceRegistry) *app.Verifier { return verifier })
	di.RegisterToken(c, offchaindi.OrchestratorToken, func(di.ServiceRegistry) *app.Orchestrator { return orchestrator })
	di.RegisterToken(c, offchaindi.ScannerToken, func(di.ServiceRegistry) *infra.PoolGapScanner { return scanner })
	di.RegisterToken(c, offchaindi.SubmitterToken, func(di.ServiceRegistry) *infra.LedgerSubmitter { return submitter })
	di.RegisterToken(c, offchaindi.ReporterToken, func(di.ServiceRegistry) *infra.LogReporter { return reporter })
	return nil
}

// Startup implements monolith.Module: it starts the gas feed and the
// orchestrator loop. With no RPC endpoint configured the strategist runs on
// the simulated feed.
func (m *Module) Startup(ctx context.Context) error {
	if m.rpcURL != "" {
		oracle, err := ethereum.NewGasOracle(ctx, m.log, m.rpcURL)
		if err != nil {
			return err
		}
		m.oracle = oracle
		go oracle.Poll(ctx, 15*time.Second, m.gas)
		m.log.Info(ctx, "gas oracle polling RPC endpoint")
	} else {
		m.simFeed = infra.NewSimGasFeed(time.Now().UnixNano(), 10, 80)
		go m.simFeed.Poll(ctx, 2*time.Second, m.gas)
		m.log.Info(ctx, "gas strategist running on simulated feed")
	}

	m.orchestrator.Start(ctx)
	return nil
}

// Close drains the orchestrator and releases the oracle.
func (m *Module) Close() {
	if m.orchestrator != nil {
		m.orchestrator.Stop()
	}
	if m.oracle != nil {
		m.oracle.Close()
	}
}
