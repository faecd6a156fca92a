package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"exam-grading-be/pkg/llm"
)

// ErrorClass groups provider failures by retry policy.
type ErrorClass string

const (
	ClassRateLimited ErrorClass = "rate_limited"
	ClassNetwork     ErrorClass = "network"
	ClassServer      ErrorClass = "server"
	ClassAuth        ErrorClass = "auth"
	ClassBadRequest  ErrorClass = "bad_request"
	ClassUnknown     ErrorClass = "unknown"
)

// ErrPoolExhausted is returned when no client can be acquired within the
// pool timeout. It is never retried internally; the caller must back off.
var ErrPoolExhausted = errors.New("llm client pool exhausted")

type GatewayError struct {
	Class ErrorClass
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Class, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Classify maps a provider error to its class. Auth and bad-request are
// terminal; everything else is retryable with a class-specific backoff.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return ClassRateLimited
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return ClassAuth
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return ClassBadRequest
		case apiErr.StatusCode >= 500:
			return ClassServer
		default:
			return ClassUnknown
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassNetwork
	}

	return ClassUnknown
}

func retryable(class ErrorClass) bool {
	return class != ClassAuth && class != ClassBadRequest
}
