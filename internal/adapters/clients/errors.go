// Package clients provides the instrumented HTTP client for the remote
// quote source.
package clients

import "errors"

// Client errors represent failures in the HTTP client layer. They are
// infrastructure errors; the ACL translates them to domain errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and the
	// remote is being shielded from further requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts for a
	// single request have been exhausted. The original error is wrapped.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
