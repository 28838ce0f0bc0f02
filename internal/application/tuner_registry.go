package application

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-configspace/infrastructure/tuners"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.TunerRegistry = (*DefaultTunerRegistry)(nil)

// DefaultTunerRegistry implements the TunerRegistry interface. It ships
// with the random tuner registered under "random"; callers register
// user-defined strategies under their own type names.
type DefaultTunerRegistry struct {
	// factories maps tuner type strings to their factory functions.
	factories map[string]ports.TunerFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultTunerRegistry creates a registry with the built-in tuners.
func NewDefaultTunerRegistry() *DefaultTunerRegistry {
	r := &DefaultTunerRegistry{factories: make(map[string]ports.TunerFactory)}
	r.factories[ports.TunerRandom.String()] = func(name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace) (ports.Tuner, error) {
		return tuners.NewRandomTuner(name, cs, os)
	}
	return r
}

// CreateTuner implements ports.TunerRegistry. The tuner type is case
// folded before lookup.
func (r *DefaultTunerRegistry) CreateTuner(
	tunerType, name string,
	cs *space.ConfigurationSpace,
	os *space.ObjectiveSpace,
) (ports.Tuner, error) {
	key := fold(tunerType)
	r.mu.RLock()
	factory, exists := r.factories[key]
	r.mu.RUnlock()

	if !exists {
		if guess := r.closestType(key); guess != "" {
			return nil, fmt.Errorf("tuner type %q (did you mean %q?): %w", tunerType, guess, ports.ErrUnknownTuner)
		}
		return nil, fmt.Errorf("tuner type %q: %w", tunerType, ports.ErrUnknownTuner)
	}

	tuner, err := factory(name, cs, os)
	if err != nil {
		return nil, fmt.Errorf("failed to create tuner %s of type %s: %w", name, key, err)
	}
	return tuner, nil
}

// RegisterTunerFactory implements ports.TunerRegistry.
func (r *DefaultTunerRegistry) RegisterTunerFactory(tunerType string, factory ports.TunerFactory) error {
	if tunerType == "" {
		return errors.New("tuner type cannot be empty")
	}

	if factory == nil {
		return errors.New("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[fold(tunerType)] = factory
	return nil
}

// SupportedTypes implements ports.TunerRegistry.
func (r *DefaultTunerRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// closestType suggests a registered type within edit distance two.
func (r *DefaultTunerRegistry) closestType(tunerType string) string {
	best, bestDist := "", 3
	for _, t := range r.SupportedTypes() {
		if d := levenshtein.ComputeDistance(tunerType, t); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}
