package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ResultCode is the closed set of outcomes every fallible operation of the
// configuration space model can report. Callers branch on the code (or on
// the matching sentinel error) rather than on side-channel state.
type ResultCode int

// Result codes. The numbering is stable and mirrors the order in which the
// codes are documented; Success is always zero.
const (
	Success ResultCode = iota
	InvalidObject
	InvalidValue
	InvalidType
	InvalidScale
	InvalidDistribution
	InvalidExpression
	InvalidHyperparameter
	InvalidConfiguration
	InvalidName
	InvalidCondition
	InvalidTuner
	InvalidGraph
	TypeNotComparable
	InvalidBounds
	OutOfBounds
	SamplingUnsuccessful
	InactiveHyperparameter
	OutOfMemory
	UnsupportedOperation
	InvalidEvaluation
)

// Sentinel errors, one per non-success ResultCode.
var (
	// ErrInvalidObject indicates a nil or foreign object reference.
	ErrInvalidObject = errors.New("invalid object")

	// ErrInvalidValue indicates an invalid argument or an illegal operation
	// on values during expression evaluation.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidType indicates an unknown numeric or value type.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidScale indicates an unknown scale type.
	ErrInvalidScale = errors.New("invalid scale")

	// ErrInvalidDistribution indicates a distribution that cannot be used in
	// the requested role, e.g. a multi-dimensional one for a single
	// hyperparameter.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrInvalidExpression indicates an expression of the wrong kind.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrInvalidHyperparameter indicates a duplicate, unknown or
	// already-conditioned hyperparameter.
	ErrInvalidHyperparameter = errors.New("invalid hyperparameter")

	// ErrInvalidConfiguration indicates a configuration that does not fit
	// its space.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidName indicates an unknown or malformed name.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidCondition indicates conditions that cannot be ordered.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrInvalidTuner indicates a tuner that is closed or malformed.
	ErrInvalidTuner = errors.New("invalid tuner")

	// ErrInvalidGraph indicates a cycle in condition dependencies.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrTypeNotComparable indicates values of kinds that cannot be ordered.
	ErrTypeNotComparable = errors.New("type not comparable")

	// ErrInvalidBounds indicates bounds that do not form a usable interval.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrOutOfBounds indicates an index past the end of a collection.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrSamplingUnsuccessful indicates the bounded oversampling retry
	// ceiling was reached: the distribution is a poor match for the domain.
	ErrSamplingUnsuccessful = errors.New("sampling unsuccessful")

	// ErrInactiveHyperparameter indicates that an expression evaluation
	// reached a variable bound to an inactive value.
	ErrInactiveHyperparameter = errors.New("inactive hyperparameter")

	// ErrOutOfMemory indicates a refused allocation.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrUnsupportedOperation indicates an optional capability that the
	// receiver does not provide.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidEvaluation indicates an evaluation that does not fit its
	// objective space.
	ErrInvalidEvaluation = errors.New("invalid evaluation")
)

var codeSentinels = [...]error{
	Success:                nil,
	InvalidObject:          ErrInvalidObject,
	InvalidValue:           ErrInvalidValue,
	InvalidType:            ErrInvalidType,
	InvalidScale:           ErrInvalidScale,
	InvalidDistribution:    ErrInvalidDistribution,
	InvalidExpression:      ErrInvalidExpression,
	InvalidHyperparameter:  ErrInvalidHyperparameter,
	InvalidConfiguration:   ErrInvalidConfiguration,
	InvalidName:            ErrInvalidName,
	InvalidCondition:       ErrInvalidCondition,
	InvalidTuner:           ErrInvalidTuner,
	InvalidGraph:           ErrInvalidGraph,
	TypeNotComparable:      ErrTypeNotComparable,
	InvalidBounds:          ErrInvalidBounds,
	OutOfBounds:            ErrOutOfBounds,
	SamplingUnsuccessful:   ErrSamplingUnsuccessful,
	InactiveHyperparameter: ErrInactiveHyperparameter,
	OutOfMemory:            ErrOutOfMemory,
	UnsupportedOperation:   ErrUnsupportedOperation,
	InvalidEvaluation:      ErrInvalidEvaluation,
}

// Err returns the sentinel error for the code, or nil for Success and
// unknown codes.
func (c ResultCode) Err() error {
	if c < 0 || int(c) >= len(codeSentinels) {
		return nil
	}
	return codeSentinels[c]
}

// String returns the sentinel message, "success" or "unknown".
func (c ResultCode) String() string {
	if c == Success {
		return "success"
	}
	if err := c.Err(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

// CodeOf maps an error back to its ResultCode by walking the wrap chain.
// Errors that wrap none of the sentinels map to InvalidValue since every
// failure of this model is a caller-visible contract violation.
func CodeOf(err error) ResultCode {
	if err == nil {
		return Success
	}
	for code := InvalidObject; int(code) < len(codeSentinels); code++ {
		if errors.Is(err, codeSentinels[code]) {
			return code
		}
	}
	return InvalidValue
}

// OperationError records which entity and operation failed, for both
// programmer-contract violations and domain violations.
type OperationError struct {
	// Entity is the kind of object that reported the failure, e.g.
	// "configuration_space" or "hyperparameter".
	Entity string

	// Name identifies the object when it has one.
	Name string

	// Index is the position involved in the failure, or -1.
	Index int

	// Operation describes what was being performed.
	Operation string

	// Err is the underlying sentinel or wrapped error.
	Err error
}

// Error implements the error interface for OperationError.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s error: operation=%s", e.Entity, e.Operation)
	if e.Name != "" {
		msg += fmt.Sprintf(", name=%s", e.Name)
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(", index=%d", e.Index)
	}
	return msg + fmt.Sprintf(", err=%v", e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *OperationError) Unwrap() error { return e.Err }

// Code returns the ResultCode carried by the wrapped error.
func (e *OperationError) Code() ResultCode { return CodeOf(e.Err) }

// NewOperationError creates a new OperationError without an index.
func NewOperationError(entity, name, operation string, err error) *OperationError {
	return &OperationError{
		Entity:    entity,
		Name:      name,
		Index:     -1,
		Operation: operation,
		Err:       err,
	}
}

// NewIndexError creates a new OperationError that names a position.
func NewIndexError(entity, operation string, index int, err error) *OperationError {
	return &OperationError{
		Entity:    entity,
		Index:     index,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError collects every failure found while validating one
// entity so that callers see all of them at once. errors.Is matches any of
// the collected errors.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errs holds the collected failures in the order they were found.
	Errs []error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("validation error for %s: %v", e.Entity, e.Errs[0])
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation errors for %s: %s", e.Entity, strings.Join(msgs, "; "))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error { return e.Errs }

// Add records err. Nil errors are ignored.
func (e *ValidationError) Add(err error) {
	if err != nil {
		e.Errs = append(e.Errs, err)
	}
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errs) > 0 }

// Code reports the result code of the first collected failure.
func (e *ValidationError) Code() ResultCode {
	if len(e.Errs) == 0 {
		return Success
	}
	return CodeOf(e.Errs[0])
}

// NewValidationError creates an empty ValidationError for entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}
