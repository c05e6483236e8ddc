// Package di declares the execution context's service tokens.
package di

import (
	"github.com/flasharb-labs/flasharb/business/execution/engine"
	"github.com/flasharb-labs/flasharb/business/execution/evm"
	"github.com/flasharb-labs/flasharb/internal/di"
)

var (
	// AssetToken is the borrowed asset.
	AssetToken = di.NewToken[*evm.Token]("execution.asset")
	// IntermediateToken is the intermediate leg of the arbitrage pair.
	IntermediateToken = di.NewToken[*evm.Token]("execution.intermediate")
	// FlashPoolToken is the flash loan provider.
	FlashPoolToken = di.NewToken[*evm.FlashPool]("execution.flashpool")
	// V2RouterToken is the constant product router.
	V2RouterToken = di.NewToken[*evm.V2Router]("execution.router.v2")
	// V3RouterToken is the concentrated liquidity router.
	V3RouterToken = di.NewToken[*evm.V3Router]("execution.router.v3")
	// CPPoolToken is the constant product pool behind the V2 router.
	CPPoolToken = di.NewToken[*evm.ConstantProductPool]("execution.pool.cp")
	// CLPoolToken is the concentrated pool behind the V3 router.
	CLPoolToken = di.NewToken[*evm.ConcentratedPool]("execution.pool.cl")
	// EngineToken is the flash loan execution engine.
	EngineToken = di.NewToken[*engine.Engine]("execution.engine")
)
