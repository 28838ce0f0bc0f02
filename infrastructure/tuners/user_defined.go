package tuners

import (
	"context"
	"fmt"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

var _ ports.Tuner = (*UserDefinedTuner)(nil)

// UserDefinedVector is the set of callbacks a caller-defined strategy
// provides. Del, Ask, Tell, Optimums and History are required. AskCount
// and Suggest are optional: without AskCount the tuner reports that it
// produces exactly n configurations, and without Suggest it does not
// support suggestions.
type UserDefinedVector struct {
	Del      func(t *UserDefinedTuner) error
	Ask      func(ctx context.Context, t *UserDefinedTuner, n int) ([]*space.Configuration, error)
	AskCount func(t *UserDefinedTuner, n int) (int, error)
	Tell     func(ctx context.Context, t *UserDefinedTuner, evals []*space.Evaluation) error
	Optimums func(t *UserDefinedTuner) ([]*space.Evaluation, error)
	History  func(t *UserDefinedTuner) ([]*space.Evaluation, error)
	Suggest  func(ctx context.Context, t *UserDefinedTuner) (*space.Configuration, error)
}

func (v *UserDefinedVector) validate() error {
	missing := ""
	switch {
	case v.Del == nil:
		missing = "Del"
	case v.Ask == nil:
		missing = "Ask"
	case v.Tell == nil:
		missing = "Tell"
	case v.Optimums == nil:
		missing = "Optimums"
	case v.History == nil:
		missing = "History"
	default:
		return nil
	}
	return fmt.Errorf("user defined tuner without %s: %w", missing, domain.ErrInvalidValue)
}

// UserDefinedTuner forwards every operation to a UserDefinedVector. It is
// the extension point for strategies other than random search. The
// callbacks receive the tuner so they can reach its spaces and the opaque
// strategy state returned by TunerData.
type UserDefinedTuner struct {
	common
	vector UserDefinedVector
	data   any
}

// NewUserDefinedTuner creates a tuner dispatching to vector. tunerData is
// the strategy's private state.
func NewUserDefinedTuner(
	name string,
	cs *space.ConfigurationSpace,
	os *space.ObjectiveSpace,
	vector UserDefinedVector,
	tunerData any,
	opts ...Option,
) (*UserDefinedTuner, error) {
	if err := vector.validate(); err != nil {
		return nil, err
	}
	c, err := newCommon(ports.TunerUserDefined, name, cs, os, applyOptions(opts).userData)
	if err != nil {
		return nil, err
	}
	return &UserDefinedTuner{common: c, vector: vector, data: tunerData}, nil
}

// TunerData returns the strategy state given at creation.
func (t *UserDefinedTuner) TunerData() any { return t.data }

// Ask forwards to the Ask callback.
func (t *UserDefinedTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	if err := t.check("Ask"); err != nil {
		return nil, err
	}
	if err := checkCount(n); err != nil {
		return nil, ports.NewTunerError(t.id, "Ask", err)
	}
	configs, err := t.vector.Ask(ctx, t, n)
	if err != nil {
		return nil, ports.NewTunerError(t.id, "Ask", err)
	}
	return configs, nil
}

// AskCount forwards to the AskCount callback when there is one.
func (t *UserDefinedTuner) AskCount(n int) (int, error) {
	if err := t.check("AskCount"); err != nil {
		return 0, err
	}
	if err := checkCount(n); err != nil {
		return 0, ports.NewTunerError(t.id, "AskCount", err)
	}
	if t.vector.AskCount == nil {
		return n, nil
	}
	count, err := t.vector.AskCount(t, n)
	if err != nil {
		return 0, ports.NewTunerError(t.id, "AskCount", err)
	}
	return count, nil
}

// Tell forwards to the Tell callback after rejecting evaluations of
// another objective space.
func (t *UserDefinedTuner) Tell(ctx context.Context, evals []*space.Evaluation) error {
	if err := t.check("Tell"); err != nil {
		return err
	}
	if err := t.checkEvaluations(evals); err != nil {
		return err
	}
	if err := t.vector.Tell(ctx, t, evals); err != nil {
		return ports.NewTunerError(t.id, "Tell", err)
	}
	return nil
}

// Optimums forwards to the Optimums callback.
func (t *UserDefinedTuner) Optimums() ([]*space.Evaluation, error) {
	if err := t.check("Optimums"); err != nil {
		return nil, err
	}
	evals, err := t.vector.Optimums(t)
	if err != nil {
		return nil, ports.NewTunerError(t.id, "Optimums", err)
	}
	return evals, nil
}

// NumOptimums returns the number of evaluations the Optimums callback
// reports.
func (t *UserDefinedTuner) NumOptimums() (int, error) {
	evals, err := t.Optimums()
	return len(evals), err
}

// History forwards to the History callback.
func (t *UserDefinedTuner) History() ([]*space.Evaluation, error) {
	if err := t.check("History"); err != nil {
		return nil, err
	}
	evals, err := t.vector.History(t)
	if err != nil {
		return nil, ports.NewTunerError(t.id, "History", err)
	}
	return evals, nil
}

// NumHistory returns the number of evaluations the History callback
// reports.
func (t *UserDefinedTuner) NumHistory() (int, error) {
	evals, err := t.History()
	return len(evals), err
}

// Suggest forwards to the Suggest callback, failing with
// domain.ErrUnsupportedOperation when the strategy has none.
func (t *UserDefinedTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	if err := t.check("Suggest"); err != nil {
		return nil, err
	}
	if t.vector.Suggest == nil {
		return nil, ports.NewTunerError(t.id, "Suggest",
			fmt.Errorf("tuner %s: %w", t.name, domain.ErrUnsupportedOperation))
	}
	c, err := t.vector.Suggest(ctx, t)
	if err != nil {
		return nil, ports.NewTunerError(t.id, "Suggest", err)
	}
	return c, nil
}

// Close calls the Del callback once. The tuner is closed even when Del
// fails.
func (t *UserDefinedTuner) Close() error {
	if err := t.check("Close"); err != nil {
		return err
	}
	t.closed = true
	if err := t.vector.Del(t); err != nil {
		return ports.NewTunerError(t.id, "Close", err)
	}
	return nil
}
