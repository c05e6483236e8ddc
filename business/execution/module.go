// Package execution hosts the on-ledger side of the system: tokens, swap
// pools, the flash loan provider and the execution engine, assembled into a
// module with a deterministic genesis state.
package execution

import (
	"context"
	"math/big"

	executiondi "github.com/flasharb-labs/flasharb/business/execution/di"
	"github.com/flasharb-labs/flasharb/business/execution/engine"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/di"
	"github.com/flasharb-labs/flasharb/internal/logger"
	"github.com/flasharb-labs/flasharb/internal/monolith"
)

// Module builds the execution context.
type Module struct {
	log logger.LoggerInterface
	eng *engine.Engine
}

// NewModule creates the execution module.
func NewModule() *Module { return &Module{} }

// Name implements monolith.Module.
func (m *Module) Name() string { return "execution" }

// RegisterServices seeds the ledger genesis and registers the engine and
// its collaborators. The two pools open with a deliberate price gap on the
// intermediate leg so the pair is arbitrageable from block one.
func (m *Module) RegisterServices(mono *monolith.Monolith) error {
	cfg := mono.Config()
	chain := mono.Chain()
	m.log = mono.Logger()

	usdc := evm.NewToken(chain, "USDC", uint8(cfg.Arbitrage.AssetDecimals), false)
	weth := evm.NewToken(chain, "WETH", 18, false)

	maxLoanRaw := cfg.Arbitrage.MaxLoanAmountRaw().BigInt()
	reserve := new(big.Int).Mul(maxLoanRaw, big.NewInt(100))

	flash := evm.NewFlashPool(chain, usdc, cfg.Engine.PremiumPpm)
	usdc.Mint(flash.Address(), new(big.Int).Mul(maxLoanRaw, big.NewInt(10)))

	cp := evm.NewConstantProductPool("usdc-weth", usdc, weth)
	usdc.Mint(cp.Address(), reserve)
	weth.Mint(cp.Address(), reserve)

	cl := evm.NewConcentratedPool("usdc-weth", usdc, weth, 3000)
	usdc.Mint(cl.Address(), new(big.Int).Div(new(big.Int).Mul(reserve, big.NewInt(15)), big.NewInt(10)))
	weth.Mint(cl.Address(), reserve)

	v2 := evm.NewV2Router(chain, "main", cp)
	v3 := evm.NewV3Router(chain, "main", cl)

	eng, err := engine.New(chain, m.log, flash, engine.Config{
		Owner:      cfg.Engine.OwnerAddress(),
		OwnerOnly:  cfg.Engine.OwnerOnly,
		MaxLoan:    maxLoanRaw,
		TTLSeconds: cfg.Engine.TTLSeconds,
	}, []engine.V2Swapper{v2}, []engine.V3Swapper{v3}, []*evm.Token{weth})
	if err != nil {
		return err
	}
	m.eng = eng

	c := mono.Services()
	di.RegisterToken(c, executiondi.AssetToken, func(di.ServiceRegistry) *evm.Token { return usdc })
	di.RegisterToken(c, executiondi.IntermediateToken, func(di.ServiceRegistry) *evm.Token { return weth })
	di.RegisterToken(c, executiondi.FlashPoolToken, func(di.ServiceRegistry) *evm.FlashPool { return flash })
	di.RegisterToken(c, executiondi.V2RouterToken, func(di.ServiceRegistry) *evm.V2Router { return v2 })
	di.RegisterToken(c, executiondi.V3RouterToken, func(di.ServiceRegistry) *evm.V3Router { return v3 })
	di.RegisterToken(c, executiondi.CPPoolToken, func(di.ServiceRegistry) *evm.ConstantProductPool { return cp })
	di.RegisterToken(c, executiondi.CLPoolToken, func(di.ServiceRegistry) *evm.ConcentratedPool { return cl })
	di.RegisterToken(c, executiondi.EngineToken, func(di.ServiceRegistry) *engine.Engine { return eng })
	return nil
}

// Startup implements monolith.Module. The execution context is passive: it
// only acts when the orchestrator submits a transaction.
func (m *Module) Startup(ctx context.Context) error {
	m.log.Info(ctx, "execution engine deployed",
		"engine", m.eng.Address().Hex(),
		"owner", m.eng.Owner().Hex(),
		"max_loan", m.eng.MaxLoan().String(),
		"ttl_seconds", m.eng.TTLSeconds())
	return nil
}
