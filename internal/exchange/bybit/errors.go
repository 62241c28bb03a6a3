package bybit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
)

// BybitError represents a Bybit API error with additional context
type BybitError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *BybitError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Bybit API error %d: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("Bybit API error %d: %s", e.Code, e.Message)
}

// Common Bybit error codes
const (
	ErrCodeInvalidAPIKey       = 10003
	ErrCodeInvalidSignature    = 10004
	ErrCodeInvalidTimestamp    = 10005
	ErrCodeRateLimitExceeded   = 10006
	ErrCodeServerTimeout       = 10000
	ErrCodeServerError         = 10016
	ErrCodeOrderNotFound       = 110001
	ErrCodeInsufficientBalance = 110007
	ErrCodeSymbolNotFound      = 110009
)

// IsRetryableError reports whether err carries a Bybit code worth retrying
func IsRetryableError(err error) bool {
	var bybitErr *BybitError
	if !errors.As(err, &bybitErr) {
		return false
	}
	switch bybitErr.Code {
	case ErrCodeRateLimitExceeded, ErrCodeServerTimeout, ErrCodeServerError,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsAuthenticationError checks if the error is related to authentication
func IsAuthenticationError(err error) bool {
	var bybitErr *BybitError
	if !errors.As(err, &bybitErr) {
		return false
	}
	switch bybitErr.Code {
	case ErrCodeInvalidAPIKey, ErrCodeInvalidSignature, ErrCodeInvalidTimestamp:
		return true
	}
	return false
}

// ParseAPIError extracts error information from the API response
func ParseAPIError(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return &BybitError{Code: retCode, Message: retMsg}
}

// classify wraps err in the category the retry layer acts on. Throttling and
// server-side codes become network errors; credentials and everything else the
// exchange rejects are final.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if _, ok := boterrors.CategoryOf(err); ok {
		return err
	}

	var bybitErr *BybitError
	if !errors.As(err, &bybitErr) {
		return boterrors.NewNetworkError(component, operation, err)
	}

	switch {
	case IsRetryableError(err):
		return boterrors.NewNetworkError(component, operation, err).WithContext("code", bybitErr.Code)
	case IsAuthenticationError(err):
		return boterrors.WrapError(err, boterrors.ErrorCategoryCredentials, component, operation)
	default:
		return boterrors.NewExchangeError(component, operation, err).WithContext("code", bybitErr.Code)
	}
}
