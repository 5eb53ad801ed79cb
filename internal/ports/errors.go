package ports

import "errors"

// Standard application-level errors.
// Adapters and the pipeline wrap their failures with these so callers can match with errors.Is.
var (
	// General Errors
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price data errors. Per-ticker conditions are recoverable: the pipeline records them
	// next to the ticker instead of failing the whole run.
	ErrMissingColumn        = errors.New("ticker price column not found in table")
	ErrEmptyWindow          = errors.New("filtered table has no rows")
	ErrInsufficientData     = errors.New("not enough observations in column")
	ErrUndefinedRatio       = errors.New("percent change undefined: first close is zero")
	ErrUnsupportedIndicator = errors.New("indicator not supported")
	ErrSourceUnavailable    = errors.New("price source could not be read")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)

// ErrorCode maps a taxonomy error to a stable identifier for API consumers.
// Unrecognized errors map to "unknown".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrEmptyWindow):
		return "empty_window"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrUndefinedRatio):
		return "undefined_ratio"
	case errors.Is(err, ErrUnsupportedIndicator):
		return "unsupported_indicator"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	default:
		return "unknown"
	}
}
