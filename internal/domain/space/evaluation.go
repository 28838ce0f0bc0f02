package space

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Comparison is the Pareto dominance relation between two evaluations.
type Comparison int

const (
	Better        Comparison = -1
	Equivalent    Comparison = 0
	Worse         Comparison = 1
	NotComparable Comparison = 2
)

func (c Comparison) String() string {
	switch c {
	case Better:
		return "better"
	case Equivalent:
		return "equivalent"
	case Worse:
		return "worse"
	case NotComparable:
		return "not_comparable"
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}

// Evaluation records the measurements taken for one configuration. Its
// values bind the hyperparameters of the objective space; the objectives
// are computed from them on demand.
type Evaluation struct {
	binding
	objectiveSpace *ObjectiveSpace
	configuration  *Configuration
	code           domain.ResultCode
}

// NewEvaluation binds values to os for configuration c. code records
// whether the measurement itself succeeded; evaluations with a non-success
// code carry no comparable objectives.
func NewEvaluation(os *ObjectiveSpace, c *Configuration, code domain.ResultCode, values []domain.Value, opts ...BindingOption) (*Evaluation, error) {
	if os == nil {
		return nil, fmt.Errorf("evaluation of nil objective space: %w", domain.ErrInvalidObject)
	}
	if c == nil {
		return nil, fmt.Errorf("evaluation of nil configuration: %w", domain.ErrInvalidObject)
	}
	b, err := newBinding(os.NumHyperparameters(), values, opts)
	if err != nil {
		return nil, domain.NewOperationError("objective space", os.name, "new_evaluation", err)
	}
	return &Evaluation{binding: b, objectiveSpace: os, configuration: c, code: code}, nil
}

// ObjectiveSpace returns the objective space the values are bound to.
func (e *Evaluation) ObjectiveSpace() *ObjectiveSpace { return e.objectiveSpace }

// Configuration returns the evaluated configuration.
func (e *Evaluation) Configuration() *Configuration { return e.configuration }

// Error returns the recorded measurement outcome.
func (e *Evaluation) Error() domain.ResultCode { return e.code }

// SetError replaces the recorded measurement outcome.
func (e *Evaluation) SetError(code domain.ResultCode) { e.code = code }

// SetValue binds v to measured hyperparameter i after validating it.
func (e *Evaluation) SetValue(i int, v domain.Value) error {
	return e.setValue(i, v, func(i int, v domain.Value) (domain.Value, bool) {
		return e.objectiveSpace.hps[i].Validate(v)
	})
}

// ValueByName returns the value bound to the named hyperparameter.
func (e *Evaluation) ValueByName(name string) (domain.Value, error) {
	i, err := e.objectiveSpace.HyperparameterIndexByName(name)
	if err != nil {
		return domain.Value{}, err
	}
	return e.values[i], nil
}

// Check runs the objective space's check on e.
func (e *Evaluation) Check() error { return e.objectiveSpace.CheckEvaluation(e) }

// ObjectiveValue evaluates objective i against the bound values.
func (e *Evaluation) ObjectiveValue(i int) (domain.Value, error) {
	obj, err := e.objectiveSpace.Objective(i)
	if err != nil {
		return domain.Value{}, err
	}
	return obj.Expression.Eval(e.objectiveSpace, e.values)
}

// ObjectiveValues evaluates every objective.
func (e *Evaluation) ObjectiveValues() ([]domain.Value, error) {
	out := make([]domain.Value, e.objectiveSpace.NumObjectives())
	for i := range out {
		v, err := e.ObjectiveValue(i)
		if err != nil {
			return nil, fmt.Errorf("objective %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Hash is consistent with Cmp.
func (e *Evaluation) Hash() uint64 {
	d := xxhash.New()
	hashValues(d, e.objectiveSpace.id, e.values)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(e.code))
	binary.LittleEndian.PutUint64(buf[8:], e.configuration.Hash())
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

// Cmp is a total order over evaluations: objective space, then values,
// then outcome, then configuration. It is unrelated to Compare.
func (e *Evaluation) Cmp(o *Evaluation) int {
	if e == o {
		return 0
	}
	if c := cmpValues(e.objectiveSpace.id, o.objectiveSpace.id, e.values, o.values); c != 0 {
		return c
	}
	if c := cmp.Compare(e.code, o.code); c != 0 {
		return c
	}
	return e.configuration.Cmp(o.configuration)
}

// Compare reports whether e dominates o. Every objective is evaluated on
// both sides; e is Better when it is at least as good on all of them and
// strictly better on one. Objectives that disagree, or values that are not
// numbers of the same kind, make the pair NotComparable. Only successful
// evaluations of the same objective space can be compared.
func (e *Evaluation) Compare(o *Evaluation) (Comparison, error) {
	if o == nil {
		return NotComparable, fmt.Errorf("compare with nil evaluation: %w", domain.ErrInvalidObject)
	}
	if e.code != domain.Success || o.code != domain.Success {
		return NotComparable, fmt.Errorf("compare failed evaluations (%s, %s): %w", e.code, o.code, domain.ErrInvalidObject)
	}
	if e == o {
		return Equivalent, nil
	}
	if e.objectiveSpace != o.objectiveSpace {
		return NotComparable, fmt.Errorf("compare across objective spaces: %w", domain.ErrInvalidObject)
	}

	result := Equivalent
	for i, obj := range e.objectiveSpace.objectives {
		a, err := obj.Expression.Eval(e.objectiveSpace, e.values)
		if err != nil {
			return NotComparable, fmt.Errorf("objective %d: %w", i, err)
		}
		b, err := obj.Expression.Eval(o.objectiveSpace, o.values)
		if err != nil {
			return NotComparable, fmt.Errorf("objective %d: %w", i, err)
		}
		if !a.IsNumeric() || a.Kind() != b.Kind() {
			return NotComparable, nil
		}

		var c Comparison
		if a.Kind() == domain.KindInteger {
			c = Comparison(cmp.Compare(a.Int(), b.Int()))
		} else {
			// NaN has no place in either order.
			if math.IsNaN(a.Float()) || math.IsNaN(b.Float()) {
				return NotComparable, nil
			}
			c = Comparison(cmp.Compare(a.Float(), b.Float()))
		}
		if obj.Type == Maximize {
			c = -c
		}

		if result == Equivalent {
			result = c
		} else if c != Equivalent && c != result {
			return NotComparable, nil
		}
	}
	return result, nil
}

// String renders the measured values and the outcome.
func (e *Evaluation) String() string {
	return fmt.Sprintf("%s %s", formatBinding(e.objectiveSpace.hps, e.values), e.code)
}
