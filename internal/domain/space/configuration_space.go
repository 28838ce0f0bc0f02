package space

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
	"github.com/ahrav/go-configspace/internal/domain/expression"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// Compile-time interface compliance checks.
var (
	_ expression.Context = (*ConfigurationSpace)(nil)
	_ expression.Context = (*ObjectiveSpace)(nil)
)

// spaceSeq hands out identities used by binding hashes and orderings.
var spaceSeq atomic.Uint64

// ConfigurationSpace owns an ordered set of hyperparameters, one optional
// activation condition per hyperparameter, a list of forbidden clauses and
// the generator used by its sampling methods.
//
// A space is built incrementally and then used read-mostly. It is not safe
// for concurrent mutation.
type ConfigurationSpace struct {
	hyperparameterSet
	id            uint64
	userData      any
	distributions []distribution.Distribution
	conditions    []*expression.Expression
	forbidden     []*expression.Expression
	order         []int
	rng           domain.RNG
}

// Option configures a ConfigurationSpace or ObjectiveSpace.
type Option func(*options)

type options struct {
	userData any
	rng      domain.RNG
}

// WithUserData attaches an opaque value returned by UserData.
func WithUserData(data any) Option { return func(o *options) { o.userData = data } }

// WithRNG sets the generator a configuration space samples with.
func WithRNG(r domain.RNG) Option { return func(o *options) { o.rng = r } }

// NewConfigurationSpace creates an empty space. Without WithRNG the space
// draws from the runtime's shared random source.
func NewConfigurationSpace(name string, opts ...Option) *ConfigurationSpace {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = runtimeRNG{}
	}
	return &ConfigurationSpace{
		hyperparameterSet: newHyperparameterSet("configuration space", name),
		id:                spaceSeq.Add(1),
		userData:          o.userData,
		rng:               o.rng,
	}
}

// UserData returns the value attached with WithUserData.
func (s *ConfigurationSpace) UserData() any { return s.userData }

// RNG returns the generator used by Sample and Samples.
func (s *ConfigurationSpace) RNG() domain.RNG { return s.rng }

// SetRNG replaces the generator.
func (s *ConfigurationSpace) SetRNG(r domain.RNG) error {
	if r == nil {
		return domain.NewOperationError("configuration space", s.name, "set_rng",
			fmt.Errorf("nil rng: %w", domain.ErrInvalidObject))
	}
	s.rng = r
	return nil
}

// AddHyperparameter appends h. A nil distribution selects the
// hyperparameter's default one; other distributions must be one
// dimensional. On failure the space is left untouched.
func (s *ConfigurationSpace) AddHyperparameter(h hyperparameter.Hyperparameter, d distribution.Distribution) error {
	if h == nil {
		return domain.NewOperationError("configuration space", s.name, "add_hyperparameter",
			fmt.Errorf("nil hyperparameter: %w", domain.ErrInvalidObject))
	}
	if d == nil {
		var err error
		if d, err = h.DefaultDistribution(); err != nil {
			return domain.NewOperationError("configuration space", s.name, "add_hyperparameter", err)
		}
	} else if d.Dimension() != 1 {
		return domain.NewOperationError("configuration space", s.name, "add_hyperparameter",
			fmt.Errorf("distribution of dimension %d for %s: %w", d.Dimension(), h.Name(), domain.ErrInvalidDistribution))
	}
	if err := s.add(h); err != nil {
		return err
	}
	s.distributions = append(s.distributions, d)
	s.conditions = append(s.conditions, nil)
	s.order = append(s.order, len(s.hps)-1)
	return nil
}

// AddHyperparameters adds several hyperparameters with their default
// distributions, stopping at the first failure.
func (s *ConfigurationSpace) AddHyperparameters(hs ...hyperparameter.Hyperparameter) error {
	for _, h := range hs {
		if err := s.AddHyperparameter(h, nil); err != nil {
			return err
		}
	}
	return nil
}

// DistributionOf returns the distribution hyperparameter i samples from.
func (s *ConfigurationSpace) DistributionOf(i int) (distribution.Distribution, error) {
	if i < 0 || i >= len(s.distributions) {
		return nil, domain.NewIndexError("configuration space", "distribution_of", i, domain.ErrOutOfBounds)
	}
	return s.distributions[i], nil
}

// SetCondition attaches the activation condition of hyperparameter i.
// Conditions are set once, must only reference members of the space and
// must not make activation cyclic.
func (s *ConfigurationSpace) SetCondition(i int, cond *expression.Expression) error {
	if i < 0 || i >= len(s.hps) {
		return domain.NewIndexError("configuration space", "set_condition", i, domain.ErrOutOfBounds)
	}
	if cond == nil {
		return domain.NewIndexError("configuration space", "set_condition", i,
			fmt.Errorf("nil condition: %w", domain.ErrInvalidObject))
	}
	if s.conditions[i] != nil {
		return domain.NewIndexError("configuration space", "set_condition", i,
			fmt.Errorf("%s already has a condition: %w", s.hps[i].Name(), domain.ErrInvalidHyperparameter))
	}
	if err := cond.CheckContext(s); err != nil {
		return domain.NewIndexError("configuration space", "set_condition", i, err)
	}

	s.conditions[i] = cond
	order, err := s.activationOrder()
	if err != nil {
		s.conditions[i] = nil
		return domain.NewIndexError("configuration space", "set_condition", i,
			fmt.Errorf("condition on %s: %w", s.hps[i].Name(), domain.ErrInvalidGraph))
	}
	s.order = order
	return nil
}

// Condition returns the condition of hyperparameter i, nil when it is
// always active.
func (s *ConfigurationSpace) Condition(i int) (*expression.Expression, error) {
	if i < 0 || i >= len(s.conditions) {
		return nil, domain.NewIndexError("configuration space", "condition", i, domain.ErrOutOfBounds)
	}
	return s.conditions[i], nil
}

// Conditions returns one entry per hyperparameter, nil where unset.
func (s *ConfigurationSpace) Conditions() []*expression.Expression {
	return append([]*expression.Expression(nil), s.conditions...)
}

// CopyConditions copies the conditions into dst using the two-phase query
// idiom.
func (s *ConfigurationSpace) CopyConditions(dst []*expression.Expression) (int, error) {
	return domain.CopyOut(dst, s.conditions)
}

// AddForbiddenClause appends a clause. A configuration for which any
// clause evaluates to true is invalid. Clauses evaluated against the
// default configuration must not already hold.
func (s *ConfigurationSpace) AddForbiddenClause(clause *expression.Expression) error {
	if clause == nil {
		return domain.NewOperationError("configuration space", s.name, "add_forbidden_clause",
			fmt.Errorf("nil clause: %w", domain.ErrInvalidObject))
	}
	if err := clause.CheckContext(s); err != nil {
		return domain.NewOperationError("configuration space", s.name, "add_forbidden_clause", err)
	}
	defaults, err := s.ActiveValues(s.defaultValues())
	if err != nil {
		return domain.NewOperationError("configuration space", s.name, "add_forbidden_clause", err)
	}
	hit, err := clause.EvalBool(s, defaults)
	switch {
	case errors.Is(err, domain.ErrInactiveHyperparameter):
	case err != nil:
		return domain.NewOperationError("configuration space", s.name, "add_forbidden_clause", err)
	case hit:
		return domain.NewOperationError("configuration space", s.name, "add_forbidden_clause",
			fmt.Errorf("%s forbids the default configuration: %w", clause, domain.ErrInvalidConfiguration))
	}
	s.forbidden = append(s.forbidden, clause)
	return nil
}

// AddForbiddenClauses appends several clauses, stopping at the first
// failure.
func (s *ConfigurationSpace) AddForbiddenClauses(clauses ...*expression.Expression) error {
	for _, c := range clauses {
		if err := s.AddForbiddenClause(c); err != nil {
			return err
		}
	}
	return nil
}

// NumForbiddenClauses returns the number of forbidden clauses.
func (s *ConfigurationSpace) NumForbiddenClauses() int { return len(s.forbidden) }

// ForbiddenClause returns clause i.
func (s *ConfigurationSpace) ForbiddenClause(i int) (*expression.Expression, error) {
	if i < 0 || i >= len(s.forbidden) {
		return nil, domain.NewIndexError("configuration space", "forbidden_clause", i, domain.ErrOutOfBounds)
	}
	return s.forbidden[i], nil
}

// ForbiddenClauses returns a copy of the forbidden clauses.
func (s *ConfigurationSpace) ForbiddenClauses() []*expression.Expression {
	return append([]*expression.Expression(nil), s.forbidden...)
}

// CopyForbiddenClauses copies the clauses into dst using the two-phase
// query idiom.
func (s *ConfigurationSpace) CopyForbiddenClauses(dst []*expression.Expression) (int, error) {
	return domain.CopyOut(dst, s.forbidden)
}

// activationOrder sorts hyperparameter indexes so that every
// hyperparameter comes after those its condition reads. Ties keep index
// order.
func (s *ConfigurationSpace) activationOrder() ([]int, error) {
	n := len(s.hps)
	indegree := make([]int, n)
	children := make([][]int, n)
	for i, cond := range s.conditions {
		if cond == nil {
			continue
		}
		parents, err := s.HyperparameterIndexes(cond.Hyperparameters())
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			children[p] = append(children[p], i)
			indegree[i]++
		}
	}

	order := make([]int, 0, n)
	ready := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !ready[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("conditions form a cycle: %w", domain.ErrInvalidCondition)
		}
		ready[next] = true
		order = append(order, next)
		for _, c := range children[next] {
			indegree[c]--
		}
	}
	return order, nil
}

// ActivationOrder returns hyperparameter indexes in an order where every
// condition only reads hyperparameters placed before it.
func (s *ConfigurationSpace) ActivationOrder() []int { return append([]int(nil), s.order...) }

// ActiveValues returns a copy of values where every hyperparameter whose
// condition does not hold, or reads an inactive hyperparameter, is marked
// inactive.
func (s *ConfigurationSpace) ActiveValues(values []domain.Value) ([]domain.Value, error) {
	if len(values) != len(s.hps) {
		return nil, fmt.Errorf("%d values for %d hyperparameters: %w", len(values), len(s.hps), domain.ErrInvalidValue)
	}
	out := append([]domain.Value(nil), values...)
	for _, i := range s.order {
		active, err := s.isActive(i, out)
		if err != nil {
			return nil, err
		}
		if !active {
			out[i] = domain.Inactive()
		}
	}
	return out, nil
}

func (s *ConfigurationSpace) isActive(i int, values []domain.Value) (bool, error) {
	cond := s.conditions[i]
	if cond == nil {
		return true, nil
	}
	ok, err := cond.EvalBool(s, values)
	if errors.Is(err, domain.ErrInactiveHyperparameter) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("condition of %s: %w", s.hps[i].Name(), err)
	}
	return ok, nil
}

// CheckConfiguration is the structural check: c belongs to this space,
// carries one value per hyperparameter and each value is a member of its
// domain. Conditions and forbidden clauses are not evaluated.
func (s *ConfigurationSpace) CheckConfiguration(c *Configuration) error {
	if c == nil {
		return fmt.Errorf("nil configuration: %w", domain.ErrInvalidObject)
	}
	if c.space != s {
		return fmt.Errorf("configuration of space %q: %w", c.space.name, domain.ErrInvalidConfiguration)
	}
	return s.validateValues(c.values)
}

// CheckConfigurationValues applies CheckConfiguration to a bare value
// vector.
func (s *ConfigurationSpace) CheckConfigurationValues(values []domain.Value) error {
	return s.validateValues(values)
}

// CheckSemantic verifies full validity: active hyperparameters hold
// members of their domain, inactive ones hold the inactive marker, and no
// forbidden clause holds. Clauses that read inactive hyperparameters do
// not apply.
func (s *ConfigurationSpace) CheckSemantic(c *Configuration) error {
	if c == nil {
		return fmt.Errorf("nil configuration: %w", domain.ErrInvalidObject)
	}
	if c.space != s {
		return fmt.Errorf("configuration of space %q: %w", c.space.name, domain.ErrInvalidConfiguration)
	}
	return s.checkSemanticValues(c.values)
}

func (s *ConfigurationSpace) checkSemanticValues(values []domain.Value) error {
	if len(values) != len(s.hps) {
		return fmt.Errorf("%d values for %d hyperparameters: %w", len(values), len(s.hps), domain.ErrInvalidConfiguration)
	}
	for _, i := range s.order {
		active, err := s.isActive(i, values)
		if err != nil {
			return err
		}
		switch {
		case active && !s.hps[i].Check(values[i]):
			return fmt.Errorf("%s is active but %s is not a member: %w", s.hps[i].Name(), values[i], domain.ErrInvalidConfiguration)
		case !active && !values[i].IsInactive():
			return fmt.Errorf("%s is inactive but bound to %s: %w", s.hps[i].Name(), values[i], domain.ErrInvalidConfiguration)
		}
	}
	for k, clause := range s.forbidden {
		hit, err := clause.EvalBool(s, values)
		if errors.Is(err, domain.ErrInactiveHyperparameter) {
			continue
		}
		if err != nil {
			return fmt.Errorf("forbidden clause %d: %w", k, err)
		}
		if hit {
			return fmt.Errorf("forbidden clause %d (%s) holds: %w", k, clause, domain.ErrInvalidConfiguration)
		}
	}
	return nil
}

func (s *ConfigurationSpace) defaultValues() []domain.Value {
	values := make([]domain.Value, len(s.hps))
	for i, h := range s.hps {
		values[i] = h.DefaultValue()
	}
	return values
}

// DefaultConfiguration binds every hyperparameter to its default value.
func (s *ConfigurationSpace) DefaultConfiguration() *Configuration {
	return &Configuration{binding: binding{values: s.defaultValues()}, space: s}
}

// Sample draws one configuration. Sampling is structural only: each value
// comes independently from its distribution and neither conditions nor
// forbidden clauses are consulted. Use SampleValid for semantic validity.
func (s *ConfigurationSpace) Sample() (*Configuration, error) {
	cs, err := s.Samples(1)
	if err != nil {
		return nil, err
	}
	return cs[0], nil
}

// Samples draws n configurations. Values are drawn one hyperparameter at a
// time for all n configurations and then transposed into rows.
func (s *ConfigurationSpace) Samples(n int) ([]*Configuration, error) {
	if n < 0 {
		return nil, domain.NewOperationError("configuration space", s.name, "samples",
			fmt.Errorf("negative count %d: %w", n, domain.ErrInvalidValue))
	}
	columns := make([][]domain.Value, len(s.hps))
	for i, h := range s.hps {
		col, err := h.Samples(s.distributions[i], s.rng, n)
		if err != nil {
			return nil, domain.NewOperationError("configuration space", s.name, "samples",
				fmt.Errorf("hyperparameter %s: %w", h.Name(), err))
		}
		columns[i] = col
	}
	out := make([]*Configuration, n)
	for row := range out {
		values := make([]domain.Value, len(s.hps))
		for i := range columns {
			values[i] = columns[i][row]
		}
		out[row] = &Configuration{binding: binding{values: values}, space: s}
	}
	return out, nil
}

// SampleValid draws until a configuration passes CheckSemantic once
// inactive hyperparameters are masked, giving up after maxAttempts draws.
func (s *ConfigurationSpace) SampleValid(maxAttempts int) (*Configuration, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := s.Sample()
		if err != nil {
			return nil, err
		}
		values, err := s.ActiveValues(c.values)
		if err != nil {
			return nil, err
		}
		if err := s.checkSemanticValues(values); err == nil {
			c.values = values
			return c, nil
		} else if !errors.Is(err, domain.ErrInvalidConfiguration) {
			return nil, err
		}
	}
	return nil, domain.NewOperationError("configuration space", s.name, "sample_valid",
		fmt.Errorf("no valid configuration in %d attempts: %w", maxAttempts, domain.ErrSamplingUnsuccessful))
}

// runtimeRNG draws from math/rand/v2's shared, concurrency safe source.
type runtimeRNG struct{}

func (runtimeRNG) Uniform() float64 { return rand.Float64() }

func (runtimeRNG) UniformPos() float64 {
	for {
		if u := rand.Float64(); u != 0 {
			return u
		}
	}
}

func (runtimeRNG) UniformInt(n uint64) uint64 { return rand.Uint64N(n) }
