package space

import (
	"fmt"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/expression"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// ObjectiveType says which direction of an objective is better.
type ObjectiveType int

const (
	Minimize ObjectiveType = iota
	Maximize
)

func (t ObjectiveType) String() string {
	switch t {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("objective_type(%d)", int(t))
	}
}

// Objective is an expression over the measured hyperparameters of an
// objective space with its optimization direction.
type Objective struct {
	Expression *expression.Expression
	Type       ObjectiveType
}

// ObjectiveSpace declares what an evaluation measures (its
// hyperparameters) and the objectives computed from those measurements.
type ObjectiveSpace struct {
	hyperparameterSet
	id         uint64
	userData   any
	objectives []Objective
}

// NewObjectiveSpace creates an empty objective space.
func NewObjectiveSpace(name string, opts ...Option) *ObjectiveSpace {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &ObjectiveSpace{
		hyperparameterSet: newHyperparameterSet("objective space", name),
		id:                spaceSeq.Add(1),
		userData:          o.userData,
	}
}

// UserData returns the value attached with WithUserData.
func (s *ObjectiveSpace) UserData() any { return s.userData }

// AddHyperparameter appends a measured hyperparameter.
func (s *ObjectiveSpace) AddHyperparameter(h hyperparameter.Hyperparameter) error { return s.add(h) }

// AddHyperparameters appends several hyperparameters, stopping at the
// first failure.
func (s *ObjectiveSpace) AddHyperparameters(hs ...hyperparameter.Hyperparameter) error {
	for _, h := range hs {
		if err := s.add(h); err != nil {
			return err
		}
	}
	return nil
}

// AddObjective appends an objective. The expression may only reference
// hyperparameters of the space.
func (s *ObjectiveSpace) AddObjective(expr *expression.Expression, t ObjectiveType) error {
	if expr == nil {
		return domain.NewOperationError("objective space", s.name, "add_objective",
			fmt.Errorf("nil expression: %w", domain.ErrInvalidObject))
	}
	if t != Minimize && t != Maximize {
		return domain.NewOperationError("objective space", s.name, "add_objective",
			fmt.Errorf("objective type %s: %w", t, domain.ErrInvalidValue))
	}
	if err := expr.CheckContext(s); err != nil {
		return domain.NewOperationError("objective space", s.name, "add_objective", err)
	}
	s.objectives = append(s.objectives, Objective{Expression: expr, Type: t})
	return nil
}

// AddObjectives appends several objectives, stopping at the first failure.
func (s *ObjectiveSpace) AddObjectives(objs ...Objective) error {
	for _, o := range objs {
		if err := s.AddObjective(o.Expression, o.Type); err != nil {
			return err
		}
	}
	return nil
}

// NumObjectives returns the number of objectives.
func (s *ObjectiveSpace) NumObjectives() int { return len(s.objectives) }

// Objective returns objective i.
func (s *ObjectiveSpace) Objective(i int) (Objective, error) {
	if i < 0 || i >= len(s.objectives) {
		return Objective{}, domain.NewIndexError("objective space", "objective", i, domain.ErrOutOfBounds)
	}
	return s.objectives[i], nil
}

// Objectives returns a copy of the objectives.
func (s *ObjectiveSpace) Objectives() []Objective { return append([]Objective(nil), s.objectives...) }

// CopyObjectives copies the objectives into dst using the two-phase query
// idiom.
func (s *ObjectiveSpace) CopyObjectives(dst []Objective) (int, error) {
	return domain.CopyOut(dst, s.objectives)
}

// CheckEvaluation verifies that e belongs to this space and binds members
// of every hyperparameter domain.
func (s *ObjectiveSpace) CheckEvaluation(e *Evaluation) error {
	if e == nil {
		return fmt.Errorf("nil evaluation: %w", domain.ErrInvalidObject)
	}
	if e.objectiveSpace != s {
		return fmt.Errorf("evaluation of objective space %q: %w", e.objectiveSpace.name, domain.ErrInvalidEvaluation)
	}
	return s.CheckEvaluationValues(e.values)
}

// CheckEvaluationValues applies CheckEvaluation to a bare value vector.
func (s *ObjectiveSpace) CheckEvaluationValues(values []domain.Value) error {
	if len(values) != len(s.hps) {
		return fmt.Errorf("%d values for %d hyperparameters: %w", len(values), len(s.hps), domain.ErrInvalidEvaluation)
	}
	for i, v := range values {
		if !s.hps[i].Check(v) {
			return fmt.Errorf("value %s is not a member of %s: %w", v, s.hps[i].Name(), domain.ErrInvalidEvaluation)
		}
	}
	return nil
}
