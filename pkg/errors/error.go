// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, invalid series, type mismatches
//   - Data/Resource errors (200-299): Data not found, query failures, cache backends
//   - Indicator errors (300-399): Technical indicator calculation errors
//   - Strategy errors (400-499): Strategy configuration errors
//   - Backtest errors (600-699): Backtesting engine and batch errors
//
// Besides the coded Error, the package defines the typed errors a batch reports per
// asset: InsufficientDataError, NoDataError, InvalidParameterError and
// CacheUnavailableError.
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// ErrorCode returns the code of the error.
func (e *Error) ErrorCode() ErrorCode {
	return e.Code
}

// GetCode extracts the ErrorCode of the outermost coded error in err's chain.
// Returns ErrCodeUnknown if the chain carries no code.
func GetCode(err error) ErrorCode {
	var coded interface{ ErrorCode() ErrorCode }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., a strategy requiring a minimum lookback).
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// ErrorCode returns ErrCodeInsufficientData.
func (e *InsufficientDataError) ErrorCode() ErrorCode {
	return ErrCodeInsufficientData
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// NoDataError is returned by a price source when an asset has no bars in the
// requested range.
type NoDataError struct {
	Symbol  string
	Message string
}

// NewNoDataErrorf creates a new NoDataError with a formatted message.
func NewNoDataErrorf(symbol, format string, args ...any) *NoDataError {
	return &NoDataError{
		Symbol:  symbol,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *NoDataError) Error() string {
	return e.Message
}

// ErrorCode returns ErrCodeNoDataFound.
func (e *NoDataError) ErrorCode() ErrorCode {
	return ErrCodeNoDataFound
}

// IsNoDataError checks if an error is a NoDataError.
func IsNoDataError(err error) bool {
	var noDataErr *NoDataError

	return errors.As(err, &noDataErr)
}

// InvalidParameterError reports a strategy parameter outside its declared range,
// an unknown parameter name, or an invalid strategy configuration field.
type InvalidParameterError struct {
	Strategy  string
	Parameter string
	Value     float64
	Min       float64
	Max       float64
	Message   string
}

// NewInvalidParameterErrorf creates a new InvalidParameterError without range context.
func NewInvalidParameterErrorf(strategy, parameter, format string, args ...any) *InvalidParameterError {
	return &InvalidParameterError{
		Strategy:  strategy,
		Parameter: parameter,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewOutOfRangeError creates an InvalidParameterError for a value outside [min, max].
func NewOutOfRangeError(strategy, parameter string, value, minValue, maxValue float64) *InvalidParameterError {
	return &InvalidParameterError{
		Strategy:  strategy,
		Parameter: parameter,
		Value:     value,
		Min:       minValue,
		Max:       maxValue,
		Message: fmt.Sprintf("parameter %s of strategy %s must be within [%g, %g], got %g",
			parameter, strategy, minValue, maxValue, value),
	}
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	return e.Message
}

// ErrorCode returns ErrCodeInvalidParameter.
func (e *InvalidParameterError) ErrorCode() ErrorCode {
	return ErrCodeInvalidParameter
}

// IsInvalidParameterError checks if an error is an InvalidParameterError.
func IsInvalidParameterError(err error) bool {
	var paramErr *InvalidParameterError

	return errors.As(err, &paramErr)
}

// CacheUnavailableError reports an unreachable cache backend. It is never fatal
// to a backtest: callers fall back to computing the result.
type CacheUnavailableError struct {
	Backend string
	Cause   error
}

// NewCacheUnavailableError creates a new CacheUnavailableError.
func NewCacheUnavailableError(backend string, cause error) *CacheUnavailableError {
	return &CacheUnavailableError{
		Backend: backend,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *CacheUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache backend %s unavailable: %v", e.Backend, e.Cause)
	}

	return fmt.Sprintf("cache backend %s unavailable", e.Backend)
}

// Unwrap returns the underlying error cause.
func (e *CacheUnavailableError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns ErrCodeCacheUnavailable.
func (e *CacheUnavailableError) ErrorCode() ErrorCode {
	return ErrCodeCacheUnavailable
}

// IsCacheUnavailableError checks if an error is a CacheUnavailableError.
func IsCacheUnavailableError(err error) bool {
	var cacheErr *CacheUnavailableError

	return errors.As(err, &cacheErr)
}

// Reason classifies err into the short label used for failed assets in a batch.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNoDataError(err):
		return "no_data"
	case IsInsufficientDataError(err):
		return "insufficient_data"
	case IsInvalidParameterError(err):
		return "invalid_parameter"
	case IsCacheUnavailableError(err):
		return "cache_unavailable"
	case HasCode(err, ErrCodeInvalidSeries):
		return "invalid_series"
	case HasCode(err, ErrCodeBatchCancelled):
		return "cancelled"
	default:
		return "error"
	}
}
