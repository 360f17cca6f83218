package http

// Generic HTTP / JSON strings
const (
	HTTPErrorInvalidJSONText = "invalid JSON"
	HTTPErrorForbiddenText   = "forbidden"
	HTTPErrorForbiddenHost   = "forbidden host"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeNotConnected      = "not_connected"
	CodeUserRejected      = "user_rejected"
	CodeInsufficientFunds = "insufficient_funds"
	CodeBusy              = "busy"
	CodeNothingToSend     = "nothing_to_send"
	CodeStaleSelection    = "stale_selection"
	CodeNotFound          = "not_found"
	CodeUpstream          = "upstream_error"
	CodeInternal          = "internal"
)

const (
	DefaultHistoryLimit = 20
	MaxRequestBodyBytes = 1 << 20
)

const (
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
)
