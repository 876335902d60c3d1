package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/quotevault/quotesync/internal/adapters/clients"
	"github.com/quotevault/quotesync/internal/domain"
)

// BaseAdapter provides common plumbing for ACL adapters: request execution
// through the instrumented client plus error mapping to domain errors.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a base adapter bound to a client and service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// ServiceName returns the name of the external service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET request and returns the response body. The caller owns
// the body; DecodeResponse closes it. Failures come back as domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)
	if mapped := MapHTTPError(resp, err, a.serviceName, operation); mapped != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, mapped
	}

	return resp.Body, nil
}

// Post performs a POST request with a JSON body and returns the response
// body, mapping failures to domain errors.
func (a *BaseAdapter) Post(ctx context.Context, path string, body io.Reader, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Post(ctx, path, body)
	if mapped := MapHTTPError(resp, err, a.serviceName, operation); mapped != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, mapped
	}

	return resp.Body, nil
}

// DecodeResponse reads and decodes a JSON response body into the target
// type, closing the body after reading.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, fmt.Errorf("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// ValidateRequired checks that a required field is not empty.
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// ValidatePositive checks that a numeric value is positive.
func ValidatePositive[T ~int | ~int64 | ~float64](value T, fieldName string) error {
	if value <= 0 {
		return domain.NewValidationError(fieldName, "must be positive")
	}

	return nil
}

// Translator translates an external DTO to a domain type, validating the
// external data along the way.
type Translator[External any, Domain any] func(ext *External) (Domain, error)

// TranslateSlice applies a translator to a slice of external DTOs,
// returning the first error encountered.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}
