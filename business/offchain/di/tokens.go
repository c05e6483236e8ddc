// Package di declares the off-chain context's service tokens.
package di

import (
	"github.com/flasharb-labs/flasharb/business/offchain/app"
	"github.com/flasharb-labs/flasharb/business/offchain/infra"
	"github.com/flasharb-labs/flasharb/internal/di"
)

var (
	// GasStrategistToken is the shared gas price strategist.
	GasStrategistToken = di.NewToken[*app.GasStrategist]("offchain.gas_strategist")
	// RiskManagerToken is the trading risk manager.
	RiskManagerToken = di.NewToken[*app.RiskManager]("offchain.risk_manager")
	// VerifierToken is the profit verifier.
	VerifierToken = di.NewToken[*app.Verifier]("offchain.verifier")
	// OrchestratorToken is the control loop.
	OrchestratorToken = di.NewToken[*app.Orchestrator]("offchain.orchestrator")
	// ScannerToken is the pool gap scanner.
	ScannerToken = di.NewToken[*infra.PoolGapScanner]("offchain.scanner")
	// SubmitterToken is the ledger submitter.
	SubmitterToken = di.NewToken[*infra.LedgerSubmitter]("offchain.submitter")
	// ReporterToken is the attempt reporter.
	ReporterToken = di.NewToken[*infra.LogReporter]("offchain.reporter")
)
