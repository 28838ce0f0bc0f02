// Package space holds the constraint and activation authority of the
// model: configuration spaces with their conditions and forbidden clauses,
// objective spaces, and the value bindings (configurations and
// evaluations) scoped to them.
package space

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// hyperparameterSet is an ordered set of uniquely named hyperparameters
// with constant time lookup by name and by identity. Indices never change.
type hyperparameterSet struct {
	entity string
	name   string
	hps    []hyperparameter.Hyperparameter
	byName map[string]int
	byHP   map[hyperparameter.Hyperparameter]int
}

func newHyperparameterSet(entity, name string) hyperparameterSet {
	return hyperparameterSet{
		entity: entity,
		name:   name,
		byName: make(map[string]int),
		byHP:   make(map[hyperparameter.Hyperparameter]int),
	}
}

// Name returns the name given at creation.
func (s *hyperparameterSet) Name() string { return s.name }

func (s *hyperparameterSet) add(h hyperparameter.Hyperparameter) error {
	if h == nil {
		return domain.NewOperationError(s.entity, s.name, "add_hyperparameter",
			fmt.Errorf("nil hyperparameter: %w", domain.ErrInvalidObject))
	}
	if _, ok := s.byName[h.Name()]; ok {
		return domain.NewOperationError(s.entity, s.name, "add_hyperparameter",
			fmt.Errorf("duplicate name %q: %w", h.Name(), domain.ErrInvalidHyperparameter))
	}
	s.byName[h.Name()] = len(s.hps)
	s.byHP[h] = len(s.hps)
	s.hps = append(s.hps, h)
	return nil
}

// NumHyperparameters returns the number of hyperparameters.
func (s *hyperparameterSet) NumHyperparameters() int { return len(s.hps) }

// Hyperparameter returns the hyperparameter at index i.
func (s *hyperparameterSet) Hyperparameter(i int) (hyperparameter.Hyperparameter, error) {
	if i < 0 || i >= len(s.hps) {
		return nil, domain.NewIndexError(s.entity, "hyperparameter", i, domain.ErrOutOfBounds)
	}
	return s.hps[i], nil
}

// HyperparameterByName looks a hyperparameter up by name. Misses suggest
// the closest known name.
func (s *hyperparameterSet) HyperparameterByName(name string) (hyperparameter.Hyperparameter, error) {
	i, err := s.HyperparameterIndexByName(name)
	if err != nil {
		return nil, err
	}
	return s.hps[i], nil
}

// HyperparameterIndexByName returns the index of the named hyperparameter.
func (s *hyperparameterSet) HyperparameterIndexByName(name string) (int, error) {
	if i, ok := s.byName[name]; ok {
		return i, nil
	}
	msg := fmt.Sprintf("unknown hyperparameter %q", name)
	if hint := s.closestName(name); hint != "" {
		msg += fmt.Sprintf(", did you mean %q", hint)
	}
	return -1, domain.NewOperationError(s.entity, s.name, "lookup", fmt.Errorf("%s: %w", msg, domain.ErrInvalidName))
}

// closestName returns the known name with the smallest edit distance when
// that distance is small enough to be a plausible typo.
func (s *hyperparameterSet) closestName(name string) string {
	best, bestDist := "", len(name)/2+1
	for _, h := range s.hps {
		if d := levenshtein.ComputeDistance(name, h.Name()); d < bestDist {
			best, bestDist = h.Name(), d
		}
	}
	return best
}

// HyperparameterIndex returns the index of h, compared by identity.
func (s *hyperparameterSet) HyperparameterIndex(h hyperparameter.Hyperparameter) (int, error) {
	if h == nil {
		return -1, fmt.Errorf("nil hyperparameter: %w", domain.ErrInvalidObject)
	}
	i, ok := s.byHP[h]
	if !ok {
		return -1, domain.NewOperationError(s.entity, s.name, "lookup",
			fmt.Errorf("hyperparameter %q is not a member: %w", h.Name(), domain.ErrInvalidHyperparameter))
	}
	return i, nil
}

// HyperparameterIndexes resolves several hyperparameters at once.
func (s *hyperparameterSet) HyperparameterIndexes(hs []hyperparameter.Hyperparameter) ([]int, error) {
	out := make([]int, len(hs))
	for k, h := range hs {
		i, err := s.HyperparameterIndex(h)
		if err != nil {
			return nil, err
		}
		out[k] = i
	}
	return out, nil
}

// Hyperparameters returns a copy of the hyperparameters in index order.
func (s *hyperparameterSet) Hyperparameters() []hyperparameter.Hyperparameter {
	return append([]hyperparameter.Hyperparameter(nil), s.hps...)
}

// CopyHyperparameters copies the hyperparameters into dst using the
// two-phase query idiom.
func (s *hyperparameterSet) CopyHyperparameters(dst []hyperparameter.Hyperparameter) (int, error) {
	return domain.CopyOut(dst, s.hps)
}

// validateValues checks a value vector against the set: the count must
// match and every value must be a member of its domain.
func (s *hyperparameterSet) validateValues(values []domain.Value) error {
	if len(values) != len(s.hps) {
		return fmt.Errorf("%d values for %d hyperparameters: %w", len(values), len(s.hps), domain.ErrInvalidConfiguration)
	}
	for i, v := range values {
		if !s.hps[i].Check(v) {
			return fmt.Errorf("value %s is not a member of %s: %w", v, s.hps[i].Name(), domain.ErrInvalidConfiguration)
		}
	}
	return nil
}
