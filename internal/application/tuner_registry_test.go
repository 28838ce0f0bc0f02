package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

func TestDefaultTunerRegistry(t *testing.T) {
	registry := NewDefaultTunerRegistry()
	cs := space.NewConfigurationSpace("cs")
	os := space.NewObjectiveSpace("os")

	t.Run("builtin random", func(t *testing.T) {
		tuner, err := registry.CreateTuner("Random", "baseline", cs, os)
		require.NoError(t, err)
		assert.Equal(t, ports.TunerRandom, tuner.Type())
		assert.Equal(t, "baseline", tuner.Name())
	})

	t.Run("unknown type suggests", func(t *testing.T) {
		_, err := registry.CreateTuner("randm", "baseline", cs, os)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ports.ErrUnknownTuner))
		assert.Contains(t, err.Error(), `did you mean "random"`)
	})

	t.Run("unknown type without suggestion", func(t *testing.T) {
		_, err := registry.CreateTuner("bayesian", "baseline", cs, os)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "did you mean")
	})

	t.Run("factory errors are wrapped", func(t *testing.T) {
		_, err := registry.CreateTuner("random", "baseline", nil, os)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidObject))
		assert.Contains(t, err.Error(), "failed to create tuner baseline of type random")
	})

	t.Run("register", func(t *testing.T) {
		require.Error(t, registry.RegisterTunerFactory("", func(string, *space.ConfigurationSpace, *space.ObjectiveSpace) (ports.Tuner, error) {
			return nil, nil
		}))
		require.Error(t, registry.RegisterTunerFactory("x", nil))

		require.NoError(t, registry.RegisterTunerFactory("Custom", func(name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace) (ports.Tuner, error) {
			return nil, errors.New("not today")
		}))
		assert.Equal(t, []string{"custom", "random"}, registry.SupportedTypes())

		_, err := registry.CreateTuner("custom", "c", cs, os)
		assert.ErrorContains(t, err, "not today")
	})
}
