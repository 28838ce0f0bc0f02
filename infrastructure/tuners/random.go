package tuners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/logger"
	"github.com/ahrav/go-configspace/internal/ports"
)

var _ ports.Tuner = (*RandomTuner)(nil)

// RandomTuner is the uniform random search baseline. Ask draws fresh
// configurations from the configuration space's distributions; Tell keeps
// the history and the subset of it that no other evaluation dominates.
//
// The optimal subset is updated incrementally: each successful evaluation
// is compared once against the current members, so a Tell costs time
// proportional to the subset size rather than to the history.
type RandomTuner struct {
	common
	history  []*space.Evaluation
	optimums []*space.Evaluation
}

// NewRandomTuner creates a random tuner over cs and os.
func NewRandomTuner(name string, cs *space.ConfigurationSpace, os *space.ObjectiveSpace, opts ...Option) (*RandomTuner, error) {
	c, err := newCommon(ports.TunerRandom, name, cs, os, applyOptions(opts).userData)
	if err != nil {
		return nil, err
	}
	return &RandomTuner{common: c}, nil
}

// Ask samples n configurations. Samples are structural only: conditions
// and forbidden clauses are not consulted.
func (t *RandomTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	if err := t.check("Ask"); err != nil {
		return nil, err
	}
	if err := checkCount(n); err != nil {
		return nil, ports.NewTunerError(t.id, "Ask", err)
	}
	configs, err := t.cs.Samples(n)
	if err != nil {
		return nil, ports.NewTunerError(t.id, "Ask", err)
	}
	logger.FromContext(ctx).Debug("random tuner asked",
		zap.String("tuner", t.name),
		zap.Int("count", n),
	)
	return configs, nil
}

// AskCount returns n: the baseline always produces as many configurations
// as requested.
func (t *RandomTuner) AskCount(n int) (int, error) {
	if err := t.check("AskCount"); err != nil {
		return 0, err
	}
	if err := checkCount(n); err != nil {
		return 0, ports.NewTunerError(t.id, "AskCount", err)
	}
	return n, nil
}

// Tell records the successful evaluations in order and folds each into
// the optimal subset. Failed evaluations are ignored. The call is rejected
// as a whole, before anything is recorded, when an evaluation belongs to
// another objective space.
func (t *RandomTuner) Tell(ctx context.Context, evals []*space.Evaluation) error {
	if err := t.check("Tell"); err != nil {
		return err
	}
	if err := t.checkEvaluations(evals); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	for _, e := range evals {
		if e.Error() != domain.Success {
			log.Debug("ignoring failed evaluation",
				zap.String("tuner", t.name),
				zap.Stringer("code", e.Error()),
			)
			continue
		}
		t.history = append(t.history, e)
		t.fold(e, log)
	}
	log.Debug("random tuner told",
		zap.String("tuner", t.name),
		zap.Int("evaluations", len(evals)),
		zap.Int("history", len(t.history)),
		zap.Int("optimums", len(t.optimums)),
	)
	return nil
}

// fold rebuilds the optimal subset in place from its previous members and
// the new evaluation e.
func (t *RandomTuner) fold(e *space.Evaluation, log *zap.Logger) {
	kept := t.optimums[:0]
	discard := false
	for _, m := range t.optimums {
		if discard {
			kept = append(kept, m)
			continue
		}
		cmp, err := m.Compare(e)
		switch {
		case err != nil:
			log.Debug("optimum not comparable with new evaluation", zap.Error(err))
			kept = append(kept, m)
		case cmp == space.Equivalent || cmp == space.Worse:
			// e ties or dominates m.
		case cmp == space.Better:
			discard = true
			kept = append(kept, m)
		default:
			kept = append(kept, m)
		}
	}
	clear(t.optimums[len(kept):])
	if !discard {
		kept = append(kept, e)
	}
	t.optimums = kept
}

// Optimums returns a snapshot of the optimal subset.
func (t *RandomTuner) Optimums() ([]*space.Evaluation, error) {
	if err := t.check("Optimums"); err != nil {
		return nil, err
	}
	return append([]*space.Evaluation(nil), t.optimums...), nil
}

// CopyOptimums copies the optimal subset into dst using the two-phase
// query idiom.
func (t *RandomTuner) CopyOptimums(dst []*space.Evaluation) (int, error) {
	if err := t.check("CopyOptimums"); err != nil {
		return 0, err
	}
	return domain.CopyOut(dst, t.optimums)
}

// NumOptimums returns the size of the optimal subset.
func (t *RandomTuner) NumOptimums() (int, error) {
	if err := t.check("NumOptimums"); err != nil {
		return 0, err
	}
	return len(t.optimums), nil
}

// History returns a snapshot of every successful evaluation told.
func (t *RandomTuner) History() ([]*space.Evaluation, error) {
	if err := t.check("History"); err != nil {
		return nil, err
	}
	return append([]*space.Evaluation(nil), t.history...), nil
}

// CopyHistory copies the history into dst using the two-phase query idiom.
func (t *RandomTuner) CopyHistory(dst []*space.Evaluation) (int, error) {
	if err := t.check("CopyHistory"); err != nil {
		return 0, err
	}
	return domain.CopyOut(dst, t.history)
}

// NumHistory returns the number of recorded evaluations.
func (t *RandomTuner) NumHistory() (int, error) {
	if err := t.check("NumHistory"); err != nil {
		return 0, err
	}
	return len(t.history), nil
}

// Suggest returns the configuration of an optimum picked uniformly with the
// configuration space's generator, or a fresh sample when nothing has been
// told yet.
func (t *RandomTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	if err := t.check("Suggest"); err != nil {
		return nil, err
	}
	if len(t.optimums) == 0 {
		configs, err := t.Ask(ctx, 1)
		if err != nil {
			return nil, err
		}
		return configs[0], nil
	}
	i := t.cs.RNG().UniformInt(uint64(len(t.optimums)))
	return t.optimums[i].Configuration(), nil
}

// Close releases the history. Later calls fail with domain.ErrInvalidTuner.
func (t *RandomTuner) Close() error {
	if err := t.check("Close"); err != nil {
		return err
	}
	t.closed = true
	t.history, t.optimums = nil, nil
	return nil
}

// String identifies the tuner in logs.
func (t *RandomTuner) String() string {
	return fmt.Sprintf("random tuner %s (%s)", t.name, t.id)
}
