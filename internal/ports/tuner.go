// Package ports defines the interfaces between the domain model and the
// infrastructure that drives it: tuners and metrics collection.
package ports

import (
	"context"
	"fmt"

	"github.com/ahrav/go-configspace/internal/domain/space"
)

// TunerType identifies a tuner implementation.
type TunerType int

const (
	// TunerRandom samples configurations uniformly from the space's
	// distributions and keeps the non-dominated evaluations.
	TunerRandom TunerType = iota
	// TunerUserDefined forwards every call to caller-provided callbacks.
	TunerUserDefined
)

func (t TunerType) String() string {
	switch t {
	case TunerRandom:
		return "random"
	case TunerUserDefined:
		return "user_defined"
	default:
		return fmt.Sprintf("tuner_type(%d)", int(t))
	}
}

// Tuner drives the ask/evaluate/tell loop over one configuration space and
// one objective space. It records every evaluation it is told about and
// maintains the subset that no other recorded evaluation dominates.
//
// Tuners are single writer: callers serialize Ask, Tell and Suggest.
type Tuner interface {
	// ID returns an identifier unique to this tuner instance.
	ID() string

	// Name returns the name given at creation.
	Name() string

	// Type returns the implementation kind.
	Type() TunerType

	// UserData returns the opaque value attached at creation.
	UserData() any

	// ConfigurationSpace returns the space configurations are drawn from.
	ConfigurationSpace() *space.ConfigurationSpace

	// ObjectiveSpace returns the space evaluations are bound to.
	ObjectiveSpace() *space.ObjectiveSpace

	// Ask proposes n configurations to evaluate.
	//
	// Example:
	//
	//	configs, err := tuner.Ask(ctx, 4)
	//	if err != nil {
	//	    return fmt.Errorf("ask: %w", err)
	//	}
	Ask(ctx context.Context, n int) ([]*space.Configuration, error)

	// AskCount reports how many configurations Ask(n) would return without
	// producing them.
	AskCount(n int) (int, error)

	// Tell records evaluations and updates the optimal subset.
	Tell(ctx context.Context, evals []*space.Evaluation) error

	// Optimums returns the current non-dominated evaluations.
	Optimums() ([]*space.Evaluation, error)

	// NumOptimums returns the size of the optimal subset.
	NumOptimums() (int, error)

	// History returns every evaluation told so far, in order.
	History() ([]*space.Evaluation, error)

	// NumHistory returns the number of recorded evaluations.
	NumHistory() (int, error)

	// Suggest proposes a single promising configuration. It is an optional
	// capability; tuners without it fail with domain.ErrUnsupportedOperation.
	Suggest(ctx context.Context) (*space.Configuration, error)

	// Close releases the tuner. Every later call fails with
	// domain.ErrInvalidTuner.
	Close() error
}

// TunerFactory creates a tuner named name over the given spaces.
type TunerFactory func(name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace) (Tuner, error)

// TunerRegistry maps declared tuner types to factories so that study
// declarations can name their search strategy.
type TunerRegistry interface {
	// CreateTuner builds a tuner of the registered type. Unknown types
	// fail with ErrUnknownTuner.
	CreateTuner(tunerType, name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace) (Tuner, error)

	// RegisterTunerFactory adds or replaces the factory for tunerType.
	RegisterTunerFactory(tunerType string, factory TunerFactory) error

	// SupportedTypes lists the registered types in sorted order.
	SupportedTypes() []string
}
