package provider

import "errors"

// Sentinel errors forming the provider failure taxonomy.
var (
	// ErrNotConfigured indicates missing credentials or endpoint.
	// Terminal: no retry, no tracker effect.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrCircuitOpen indicates the request was skipped without a
	// network attempt because the tracker reported shouldRetry=false.
	ErrCircuitOpen = errors.New("provider circuit open")

	// ErrTimeout indicates the request exceeded its deadline. The
	// in-flight call is aborted via context cancellation.
	ErrTimeout = errors.New("provider request timed out")

	// ErrHTTP indicates a non-success HTTP status.
	ErrHTTP = errors.New("provider returned error status")

	// ErrMalformedResponse indicates an unparseable payload or a
	// response with no message content.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNetwork indicates a transport-level failure.
	ErrNetwork = errors.New("provider network error")
)

// IsFailure reports whether err belongs to the provider failure
// taxonomy, as opposed to an unexpected internal error. The decision
// engine treats taxonomy failures as a terminal "no reply" and only
// falls back to rules on unexpected errors.
func IsFailure(err error) bool {
	return errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrHTTP) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrNetwork)
}
