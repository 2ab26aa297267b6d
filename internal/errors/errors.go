// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrSymbolPattern   = errors.New("symbol does not match option pattern")
	ErrInvalidPrice    = errors.New("invalid underlying price")
	ErrSeriesNotFound  = errors.New("series not found")
	ErrNotInitialized  = errors.New("chart surface not initialized")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrDataNotFound    = errors.New("data not found")
	ErrDatabaseError   = errors.New("database error")
	ErrInputValidation = errors.New("input validation failed")
)

// FeedError represents a failed snapshot fetch: a transport failure or a non-2xx response.
type FeedError struct {
	Ticker     string
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *FeedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed error [%s]: status %d: %s", e.Ticker, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("feed error [%s]: %s: %v", e.Ticker, e.Message, e.Err)
	}
	return fmt.Sprintf("feed error [%s]: %s", e.Ticker, e.Message)
}

func (e *FeedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFeedUnavailable
}

// NewFeedError creates a new FeedError.
func NewFeedError(ticker string, statusCode int, message string, err error) *FeedError {
	return &FeedError{
		Ticker:     ticker,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// ParseError reports an option symbol that does not carry a type and strike.
type ParseError struct {
	Symbol string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %q: %v", e.Symbol, ErrSymbolPattern)
}

func (e *ParseError) Unwrap() error {
	return ErrSymbolPattern
}

// NewParseError creates a new ParseError.
func NewParseError(symbol string) *ParseError {
	return &ParseError{Symbol: symbol}
}

// InvalidPriceError is returned when a strike grid is requested for a non-positive price.
type InvalidPriceError struct {
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %v: must be positive", e.Price)
}

func (e *InvalidPriceError) Unwrap() error {
	return ErrInvalidPrice
}

// NewInvalidPriceError creates a new InvalidPriceError.
func NewInvalidPriceError(price float64) *InvalidPriceError {
	return &InvalidPriceError{Price: price}
}

// BackendOperationError represents a rejected charting backend operation.
type BackendOperationError struct {
	Operation string
	Err       error
}

func (e *BackendOperationError) Error() string {
	return fmt.Sprintf("backend error [%s]: %v", e.Operation, e.Err)
}

func (e *BackendOperationError) Unwrap() error {
	return e.Err
}

// NewBackendOperationError creates a new BackendOperationError.
func NewBackendOperationError(operation string, err error) *BackendOperationError {
	return &BackendOperationError{
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Join returns an error wrapping every non-nil error in errs.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
