package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:  "Invalid input provided",
	CodeInvalidState:  "Invalid state for this operation",
	CodeNotFound:      "Resource not found",
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeConfigurationError: "Configuration error",
	CodeVenueRegistryError: "Venue registry could not be initialized",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeVenueAPIError:        "Venue API error",
	CodeOrderbookFetchFailed: "Failed to fetch orderbook",
	CodeInvalidOrderbook:     "Invalid orderbook data",
	CodeFeeRateUnavailable:   "Fee rate unavailable",

	CodeInsufficientLiquidity: "Insufficient liquidity for notional",
	CodeInvalidTradeSize:      "Invalid trade size",

	CodeCircuitOpen: "Circuit breaker is open",
}
