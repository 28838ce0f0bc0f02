package application

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
	"github.com/ahrav/go-configspace/internal/domain/expression"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
	"github.com/ahrav/go-configspace/internal/domain/space"
)

// buildHyperparameter constructs the hyperparameter a declaration
// describes. Domain errors from the constructors pass through unchanged.
func buildHyperparameter(c HyperparameterConfig) (hyperparameter.Hyperparameter, error) {
	switch fold(c.Type) {
	case "numerical":
		return buildNumerical(c)
	case "categorical":
		return hyperparameter.NewCategorical(c.Name, scalarValues(c.Values), c.DefaultIndex)
	case "ordinal":
		return hyperparameter.NewOrdinal(c.Name, scalarValues(c.Values), c.DefaultIndex)
	case "discrete":
		return hyperparameter.NewDiscrete(c.Name, scalarValues(c.Values), c.DefaultIndex)
	case "string":
		return hyperparameter.NewString(c.Name)
	default:
		return nil, fmt.Errorf("hyperparameter %s: type %q: %w", c.Name, c.Type, domain.ErrInvalidType)
	}
}

func scalarValues(ss []Scalar) []domain.Value {
	out := make([]domain.Value, len(ss))
	for i, s := range ss {
		out[i] = s.Value
	}
	return out
}

// buildNumerical infers an integer data type when none is declared and
// both bounds are integers. The default falls back to the lower bound.
func buildNumerical(c HyperparameterConfig) (*hyperparameter.Numerical, error) {
	if c.Lower == nil || c.Upper == nil {
		return nil, fmt.Errorf("numerical hyperparameter %s needs lower and upper: %w", c.Name, domain.ErrInvalidBounds)
	}

	dataType := fold(c.DataType)
	if dataType == "" {
		dataType = "float"
		if c.Lower.Value.Kind() == domain.KindInteger && c.Upper.Value.Kind() == domain.KindInteger {
			dataType = "int"
		}
	}

	def := c.Default
	if def == nil {
		def = c.Lower
	}
	quantization := c.Quantization
	if quantization == nil {
		quantization = &Scalar{Value: domain.Int(0)}
	}

	if dataType == "float" {
		fields := [4]*Scalar{c.Lower, c.Upper, quantization, def}
		var fs [4]float64
		for i, s := range fields {
			f, ok := s.Float()
			if !ok {
				return nil, fmt.Errorf("numerical hyperparameter %s: %s is not a number: %w", c.Name, s.Value, domain.ErrInvalidValue)
			}
			fs[i] = f
		}
		return hyperparameter.NewNumericalFloat(c.Name, fs[0], fs[1], fs[2], fs[3])
	}

	fields := [4]*Scalar{c.Lower, c.Upper, quantization, def}
	var is [4]int64
	for i, s := range fields {
		if s.Value.Kind() != domain.KindInteger {
			return nil, fmt.Errorf("integer hyperparameter %s: %s is not an integer: %w", c.Name, s.Value, domain.ErrInvalidValue)
		}
		is[i] = s.Value.Int()
	}
	return hyperparameter.NewNumericalInt(c.Name, is[0], is[1], is[2], is[3])
}

// buildDistribution returns nil when no distribution is declared so that
// the space falls back to the hyperparameter's default.
func buildDistribution(h hyperparameter.Hyperparameter, c *DistributionConfig) (distribution.Distribution, error) {
	if c == nil {
		return nil, nil
	}
	scale := distribution.ScaleLinear
	switch fold(c.Scale) {
	case "log", "logarithmic":
		scale = distribution.ScaleLogarithmic
	}
	numerical, isNumerical := h.(*hyperparameter.Numerical)

	switch fold(c.Type) {
	case "uniform":
		if isNumerical {
			t, lower, upper, q := numerical.Parameters()
			return distribution.NewUniform(t, lower, upper, scale, q)
		}
		if scale != distribution.ScaleLinear {
			return nil, fmt.Errorf("hyperparameter %s: %s scale needs a numerical domain: %w", h.Name(), scale, domain.ErrInvalidScale)
		}
		return h.DefaultDistribution()

	case "normal":
		if !isNumerical {
			return nil, fmt.Errorf("hyperparameter %s: normal distribution needs a numerical domain: %w", h.Name(), domain.ErrInvalidDistribution)
		}
		if c.Mu == nil || c.Sigma == nil {
			return nil, fmt.Errorf("hyperparameter %s: normal distribution needs mu and sigma: %w", h.Name(), domain.ErrInvalidDistribution)
		}
		t, _, _, q := numerical.Parameters()
		return distribution.NewNormal(t, *c.Mu, *c.Sigma, scale, q)

	case "roulette":
		indexed, ok := h.(interface{ NumValues() int })
		if !ok {
			return nil, fmt.Errorf("hyperparameter %s: roulette needs an indexed domain: %w", h.Name(), domain.ErrInvalidDistribution)
		}
		if len(c.Areas) != indexed.NumValues() {
			return nil, fmt.Errorf("hyperparameter %s: %d areas for %d values: %w",
				h.Name(), len(c.Areas), indexed.NumValues(), domain.ErrInvalidDistribution)
		}
		return distribution.NewRoulette(c.Areas)

	default:
		return nil, fmt.Errorf("hyperparameter %s: distribution %q: %w", h.Name(), c.Type, domain.ErrInvalidDistribution)
	}
}

// resolver finds the hyperparameters variables refer to.
type resolver interface {
	HyperparameterByName(name string) (hyperparameter.Hyperparameter, error)
}

// buildExpression turns a declared tree into an expression. Operators are
// looked up by symbol or by name; the arity of the node disambiguates
// unary and binary minus.
func buildExpression(c ExpressionConfig, r resolver) (*expression.Expression, error) {
	switch {
	case c.Var != "":
		h, err := r.HyperparameterByName(c.Var)
		if err != nil {
			return nil, err
		}
		return expression.Variable(h)

	case c.Lit != nil:
		return expression.Literal(c.Lit.Value)

	case c.Op != "":
		kind, ok := expression.LookupKind(fold(c.Op), len(c.Args))
		if !ok || kind == expression.KindLiteral || kind == expression.KindVariable {
			if guess := closestOperator(fold(c.Op)); guess != "" {
				return nil, fmt.Errorf("operator %q (did you mean %q?): %w", c.Op, guess, domain.ErrInvalidExpression)
			}
			return nil, fmt.Errorf("operator %q: %w", c.Op, domain.ErrInvalidExpression)
		}
		args := make([]any, len(c.Args))
		for i, arg := range c.Args {
			child, err := buildExpression(arg, r)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", kind, i, err)
			}
			args[i] = child
		}
		return expression.New(kind, args...)

	default:
		return nil, fmt.Errorf("empty expression node: %w", domain.ErrInvalidExpression)
	}
}

// closestOperator suggests an operator name within edit distance two.
func closestOperator(op string) string {
	best, bestDist := "", 3
	for k := expression.KindOr; k < expression.KindLiteral; k++ {
		if d := levenshtein.ComputeDistance(op, k.String()); d < bestDist {
			best, bestDist = k.String(), d
		}
	}
	return best
}

// buildConfigurationSpace adds every hyperparameter with its distribution,
// then the conditions and finally the forbidden clauses, so that clauses
// are checked against the complete activation graph.
func buildConfigurationSpace(config *StudyConfig, rng domain.RNG) (*space.ConfigurationSpace, error) {
	var opts []space.Option
	if rng != nil {
		opts = append(opts, space.WithRNG(rng))
	}
	cs := space.NewConfigurationSpace(config.Name, opts...)

	for i, hc := range config.Hyperparameters {
		h, err := buildHyperparameter(hc)
		if err != nil {
			return nil, fmt.Errorf("hyperparameters[%d]: %w", i, err)
		}
		d, err := buildDistribution(h, hc.Distribution)
		if err != nil {
			return nil, fmt.Errorf("hyperparameters[%d]: %w", i, err)
		}
		if err := cs.AddHyperparameter(h, d); err != nil {
			return nil, fmt.Errorf("hyperparameters[%d]: %w", i, err)
		}
	}

	for i, cc := range config.Conditions {
		idx, err := cs.HyperparameterIndexByName(cc.Hyperparameter)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		expr, err := buildExpression(cc.Expression, cs)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		if err := cs.SetCondition(idx, expr); err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
	}

	for i, fc := range config.Forbidden {
		expr, err := buildExpression(fc, cs)
		if err != nil {
			return nil, fmt.Errorf("forbidden[%d]: %w", i, err)
		}
		if err := cs.AddForbiddenClause(expr); err != nil {
			return nil, fmt.Errorf("forbidden[%d]: %w", i, err)
		}
	}
	return cs, nil
}

// buildObjectiveSpace is named after the study with an "_objectives"
// suffix.
func buildObjectiveSpace(config *StudyConfig) (*space.ObjectiveSpace, error) {
	os := space.NewObjectiveSpace(config.Name + "_objectives")
	for i, hc := range config.ObjectiveSpace.Hyperparameters {
		h, err := buildHyperparameter(hc)
		if err != nil {
			return nil, fmt.Errorf("objective_space.hyperparameters[%d]: %w", i, err)
		}
		if err := os.AddHyperparameter(h); err != nil {
			return nil, fmt.Errorf("objective_space.hyperparameters[%d]: %w", i, err)
		}
	}

	for i, oc := range config.ObjectiveSpace.Objectives {
		expr, err := buildExpression(oc.Expression, os)
		if err != nil {
			return nil, fmt.Errorf("objective_space.objectives[%d]: %w", i, err)
		}
		typ := space.Minimize
		if fold(oc.Type) == "maximize" {
			typ = space.Maximize
		}
		if err := os.AddObjective(expr, typ); err != nil {
			return nil, fmt.Errorf("objective_space.objectives[%d]: %w", i, err)
		}
	}
	return os, nil
}
