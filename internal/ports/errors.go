package ports

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Common infrastructure errors raised around tuners and study loading.
var (
	// ErrRateLimited indicates that a rate limited tuner refused a request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrUnknownTuner indicates a tuner type with no registered factory.
	ErrUnknownTuner = errors.New("unknown tuner type")

	// ErrBudgetExceeded indicates that a budgeted tuner ran out of
	// configurations or evaluations.
	ErrBudgetExceeded = errors.New("budget exceeded")
)

// BudgetExceededError reports which budget limit a request would cross.
type BudgetExceededError struct {
	// LimitType names the exhausted resource: "configurations" or
	// "evaluations".
	LimitType string

	// Limit is the configured maximum.
	Limit int64

	// Used is the amount consumed before the rejected request.
	Used int64

	// Requested is the amount the rejected request asked for.
	Requested int64

	// TunerName identifies the budgeted tuner.
	TunerName string
}

// Error implements the error interface for BudgetExceededError.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: tuner=%s, %s used=%d requested=%d limit=%d",
		e.TunerName, e.LimitType, e.Used, e.Requested, e.Limit)
}

// Unwrap returns ErrBudgetExceeded so callers can match with errors.Is.
func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

// TunerError represents a failed tuner operation. It carries the tuner's
// identity so that errors from several concurrent studies stay
// attributable.
type TunerError struct {
	// TunerID is the ID of the tuner that failed.
	TunerID string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error

	// RetryAfter indicates how long to wait before retrying, if applicable.
	RetryAfter *time.Duration
}

// Error implements the error interface for TunerError.
func (e *TunerError) Error() string {
	msg := fmt.Sprintf("tuner error: id=%s, operation=%s, err=%v", e.TunerID, e.Operation, e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *TunerError) Unwrap() error { return e.Err }

// Code returns the domain result code of the underlying error.
func (e *TunerError) Code() domain.ResultCode { return domain.CodeOf(e.Err) }

// IsRetryable returns true if the same call may succeed later. Domain
// violations never do.
func (e *TunerError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited)
}

// NewTunerError creates a new TunerError with the given details.
func NewTunerError(tunerID, operation string, err error) *TunerError {
	return &TunerError{
		TunerID:   tunerID,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
