package acl

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/quotevault/quotesync/internal/adapters/clients"
	"github.com/quotevault/quotesync/internal/domain"
)

// MapHTTPError maps an HTTP response or client-level error to a domain
// error. Either resp or clientErr may be nil, not both.
//
// The remote source has no structured error body worth parsing, so the
// mapping is by status code alone. Anything that prevents a successful
// exchange with the remote is ErrUnavailable from the caller's point of
// view; bad requests we constructed ourselves surface as ErrValidation.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, "")

	case resp.StatusCode == http.StatusConflict:
		return domain.NewConflictError(serviceName, operation+" rejected")

	case resp.StatusCode < http.StatusInternalServerError:
		return domain.NewValidationError("", fmt.Sprintf("%s rejected with status %d", operation, resp.StatusCode))

	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed with status %d", operation, resp.StatusCode))
	}
}

// mapClientError translates client-level errors to domain errors.
func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("max retries exceeded during %s", operation))

	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}
