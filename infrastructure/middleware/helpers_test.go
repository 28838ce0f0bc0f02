package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-configspace/infrastructure/rng"
	"github.com/ahrav/go-configspace/infrastructure/tuners"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/expression"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

// newRandomTuner builds a random tuner over a one dimensional space whose
// single objective minimizes the measured loss.
func newRandomTuner(t *testing.T) *tuners.RandomTuner {
	t.Helper()
	cs := space.NewConfigurationSpace("cs", space.WithRNG(rng.New(3)))
	x, err := hyperparameter.NewNumericalFloat("x", 0, 1, 0, 0.5)
	require.NoError(t, err)
	require.NoError(t, cs.AddHyperparameter(x, nil))

	os := space.NewObjectiveSpace("os")
	loss, err := hyperparameter.NewNumericalFloat("loss", -1e6, 1e6, 0, 0)
	require.NoError(t, err)
	require.NoError(t, os.AddHyperparameter(loss))
	v, err := expression.Variable(loss)
	require.NoError(t, err)
	require.NoError(t, os.AddObjective(v, space.Minimize))

	tuner, err := tuners.NewRandomTuner("baseline", cs, os)
	require.NoError(t, err)
	return tuner
}

// evaluate measures loss = x for every configuration.
func evaluate(t *testing.T, os *space.ObjectiveSpace, configs []*space.Configuration) []*space.Evaluation {
	t.Helper()
	evals := make([]*space.Evaluation, 0, len(configs))
	for _, c := range configs {
		e, err := space.NewEvaluation(os, c, domain.Success, []domain.Value{c.Values()[0]})
		require.NoError(t, err)
		evals = append(evals, e)
	}
	return evals
}

// faultyTuner forwards to a real tuner unless one of its errors is set.
type faultyTuner struct {
	ports.Tuner
	askErr     error
	suggestErr error
	sizeErr    error
}

func (f *faultyTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	if f.askErr != nil {
		return nil, f.askErr
	}
	return f.Tuner.Ask(ctx, n)
}

func (f *faultyTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.Tuner.Suggest(ctx)
}

func (f *faultyTuner) NumOptimums() (int, error) {
	if f.sizeErr != nil {
		return 0, f.sizeErr
	}
	return f.Tuner.NumOptimums()
}
