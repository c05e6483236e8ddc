package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// On-chain revert tags
	CodeNotAuthorized:    "Caller is not owner or authorized",
	CodeNotAavePool:      "Callback caller is not the flash loan provider",
	CodeInvalidInitiator: "Flash loan initiator is not this contract",
	CodeReentrancy:       "Reentrant call detected",
	CodeInvalidParams:    "Invalid route parameters",
	CodeMaxLoanExceeded:  "Loan amount exceeds configured maximum",
	CodeInvalidRouter:    "Router is not whitelisted",
	CodeSlippageExceeded: "Hop output below declared minimum",
	CodeProfitTooLow:     "Realized profit below declared minimum",
	CodeApproveFail:      "Token approval failed",
	CodeEnginePaused:     "Engine is paused",

	// Ledger-level errors
	CodeInsufficientBalance:   "Insufficient token balance",
	CodeInsufficientAllowance: "Insufficient token allowance",
	CodeDeadlineExpired:       "Transaction deadline expired",
	CodeInsufficientLiquidity: "Insufficient pool liquidity",
	CodeRepaymentFailed:       "Flash loan repayment failed",

	// Blockchain/RPC errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",

	// Verification errors
	CodeQuoteFailed:          "Failed to quote route against pool state",
	CodeProfitBelowThreshold: "Net profit below configured threshold",

	// Risk gate errors
	CodeRiskLimitBreached: "Risk limit reached, submission refused",
	CodeEmergencyStopped:  "Emergency stop is set",

	// Submission errors
	CodeSubmissionFailed: "Transaction submission failed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
