package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidState  Code = "INVALID_STATE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"

	// Configuration (fatal at startup)
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeVenueRegistryError Code = "VENUE_REGISTRY_ERROR"

	// External service errors
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
)

// Scanner-specific error codes
const (
	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Venue errors
	CodeVenueAPIError        Code = "VENUE_API_ERROR"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook     Code = "INVALID_ORDERBOOK"
	CodeFeeRateUnavailable   Code = "FEE_RATE_UNAVAILABLE"

	// Depth walking / evaluation
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize      Code = "INVALID_TRADE_SIZE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
