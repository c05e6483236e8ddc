package domain

import "math/big"

// ExecutionResult is the outcome of a single flash loan attempt as observed
// by the submitter. On failure Profit is zero and RevertReason carries the
// engine's revert tag.
type ExecutionResult struct {
	Success      bool
	Profit       *big.Int // net profit in the borrowed asset's smallest unit
	GasUsed      uint64
	RevertReason string
}
