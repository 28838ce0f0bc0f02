// Package tuners provides the Tuner implementations: the random search
// baseline and a dispatch shim for caller-defined strategies.
package tuners

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

// Common errors returned by tuner construction.
var (
	// ErrEmptyTunerName is returned when a tuner name is empty.
	ErrEmptyTunerName = errors.New("tuner name cannot be empty")
)

// Option configures a tuner.
type Option func(*options)

type options struct {
	userData any
}

// WithUserData attaches an opaque value returned by UserData.
func WithUserData(data any) Option { return func(o *options) { o.userData = data } }

func applyOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// common holds the identity and space references every tuner carries.
type common struct {
	id       string
	name     string
	typ      ports.TunerType
	userData any
	cs       *space.ConfigurationSpace
	os       *space.ObjectiveSpace
	closed   bool
}

func newCommon(typ ports.TunerType, name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace, userData any) (common, error) {
	if name == "" {
		return common{}, ErrEmptyTunerName
	}
	if cs == nil || os == nil {
		return common{}, fmt.Errorf("tuner %s needs both spaces: %w", name, domain.ErrInvalidObject)
	}
	return common{
		id:       uuid.NewString(),
		name:     name,
		typ:      typ,
		userData: userData,
		cs:       cs,
		os:       os,
	}, nil
}

// ID returns the instance identifier assigned at creation.
func (c *common) ID() string { return c.id }

// Name returns the tuner name.
func (c *common) Name() string { return c.name }

// Type returns the implementation kind.
func (c *common) Type() ports.TunerType { return c.typ }

// UserData returns the opaque value attached at creation.
func (c *common) UserData() any { return c.userData }

// ConfigurationSpace returns the space configurations are drawn from.
func (c *common) ConfigurationSpace() *space.ConfigurationSpace { return c.cs }

// ObjectiveSpace returns the space evaluations are bound to.
func (c *common) ObjectiveSpace() *space.ObjectiveSpace { return c.os }

// check fails every operation once the tuner is closed.
func (c *common) check(op string) error {
	if c.closed {
		return ports.NewTunerError(c.id, op, fmt.Errorf("tuner %s is closed: %w", c.name, domain.ErrInvalidTuner))
	}
	return nil
}

// checkEvaluations rejects nil evaluations and evaluations bound to a
// different objective space before any of them is recorded.
func (c *common) checkEvaluations(evals []*space.Evaluation) error {
	for i, e := range evals {
		if e == nil {
			return ports.NewTunerError(c.id, "Tell",
				fmt.Errorf("evaluation %d is nil: %w", i, domain.ErrInvalidObject))
		}
		if e.ObjectiveSpace() != c.os {
			return ports.NewTunerError(c.id, "Tell",
				fmt.Errorf("evaluation %d belongs to objective space %q: %w",
					i, e.ObjectiveSpace().Name(), domain.ErrInvalidEvaluation))
		}
	}
	return nil
}

func checkCount(n int) error {
	if n < 0 {
		return fmt.Errorf("negative count %d: %w", n, domain.ErrInvalidValue)
	}
	return nil
}
