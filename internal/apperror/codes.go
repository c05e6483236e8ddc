package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// On-chain revert tags. Each distinct revert reason of the execution engine
// maps to exactly one of these; callers match on them with errors.Is.
const (
	CodeNotAuthorized    Code = "NOT_AUTHORIZED"
	CodeNotAavePool      Code = "NOT_AAVE_POOL"
	CodeInvalidInitiator Code = "INVALID_INITIATOR"
	CodeReentrancy       Code = "REENTRANCY"
	CodeInvalidParams    Code = "INVALID_PARAMS"
	CodeMaxLoanExceeded  Code = "MAX_LOAN_EXCEEDED"
	CodeInvalidRouter    Code = "INVALID_ROUTER"
	CodeSlippageExceeded Code = "SLIPPAGE_EXCEEDED"
	CodeProfitTooLow     Code = "PROFIT_TOO_LOW"
	CodeApproveFail      Code = "APPROVE_FAIL"
	CodeEnginePaused     Code = "ENGINE_PAUSED"
)

// Ledger-level errors surfaced by the simulated chain primitives.
const (
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeDeadlineExpired       Code = "DEADLINE_EXPIRED"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeRepaymentFailed       Code = "REPAYMENT_FAILED"
)

// Off-chain orchestration error codes
const (
	// Blockchain/RPC errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"

	// Verification errors
	CodeQuoteFailed          Code = "QUOTE_FAILED"
	CodeProfitBelowThreshold Code = "PROFIT_BELOW_THRESHOLD"

	// Risk gate errors
	CodeRiskLimitBreached Code = "RISK_LIMIT_BREACHED"
	CodeEmergencyStopped  Code = "EMERGENCY_STOPPED"

	// Submission errors
	CodeSubmissionFailed Code = "SUBMISSION_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)

// transientCodes are the codes worth retrying: they describe a condition on
// the wire, not in the request. Everything else fails the attempt immediately.
var transientCodes = map[Code]bool{
	CodeServiceTimeout:           true,
	CodeServiceUnavailable:       true,
	CodeExternalServiceError:     true,
	CodeRateLimitExceeded:        true,
	CodeEthereumConnectionFailed: true,
	CodeEthereumRPCError:         true,
	CodeQuoteFailed:              true,
	CodeCircuitOpen:              true,
}

// IsTransient reports whether the error carries a code that a retry policy
// may legitimately retry.
func IsTransient(err error) bool {
	return transientCodes[GetCode(err)]
}
