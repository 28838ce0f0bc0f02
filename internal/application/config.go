package application

// StudyConfig is the declarative form of a tuning study: a configuration
// space, an objective space and the tuner that explores them. It is the
// root of the YAML document accepted by StudyLoader.
type StudyConfig struct {
	// Version specifies the declaration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// Name identifies the study and names the configuration space.
	Name string `yaml:"name" validate:"required,identifier,max=255"`
	// Description is free text for operators.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Seed makes sampling reproducible. When absent the space draws from
	// a randomly seeded generator.
	Seed *uint64 `yaml:"seed,omitempty"`
	// Hyperparameters declares the configuration space, in order.
	Hyperparameters []HyperparameterConfig `yaml:"hyperparameters" validate:"required,min=1,dive"`
	// Conditions attach activation conditions to hyperparameters.
	Conditions []ConditionConfig `yaml:"conditions,omitempty" validate:"dive"`
	// Forbidden lists clauses that no valid configuration may satisfy.
	Forbidden []ExpressionConfig `yaml:"forbidden,omitempty" validate:"dive"`
	// ObjectiveSpace declares what evaluations measure and optimize.
	ObjectiveSpace ObjectiveSpaceConfig `yaml:"objective_space" validate:"required"`
	// Tuner selects and parameterizes the search strategy.
	Tuner TunerConfig `yaml:"tuner" validate:"required"`
}

// HyperparameterConfig declares one hyperparameter. Which fields apply
// depends on Type: numerical hyperparameters use DataType, bounds,
// Quantization and Default; categorical, ordinal and discrete ones use
// Values and DefaultIndex; strings use neither.
type HyperparameterConfig struct {
	Name string `yaml:"name" validate:"required,identifier"`
	Type string `yaml:"type" validate:"required,oneof=numerical categorical ordinal discrete string"`
	// DataType is "int" or "float" for numerical hyperparameters.
	DataType     string              `yaml:"data_type,omitempty" validate:"omitempty,datatype"`
	Lower        *Scalar             `yaml:"lower,omitempty"`
	Upper        *Scalar             `yaml:"upper,omitempty"`
	Quantization *Scalar             `yaml:"quantization,omitempty"`
	Default      *Scalar             `yaml:"default,omitempty"`
	Values       []Scalar            `yaml:"values,omitempty"`
	DefaultIndex int                 `yaml:"default_index,omitempty" validate:"gte=0"`
	Distribution *DistributionConfig `yaml:"distribution,omitempty"`
}

// DistributionConfig overrides the default uniform distribution of a
// configuration space hyperparameter.
type DistributionConfig struct {
	Type  string `yaml:"type" validate:"required,oneof=uniform normal roulette"`
	Scale string `yaml:"scale,omitempty" validate:"omitempty,scale"`
	// Mu and Sigma parameterize normal distributions.
	Mu    *float64 `yaml:"mu,omitempty"`
	Sigma *float64 `yaml:"sigma,omitempty" validate:"omitempty,gt=0"`
	// Areas weight each value of an indexed hyperparameter for roulette
	// distributions.
	Areas []float64 `yaml:"areas,omitempty" validate:"omitempty,dive,gte=0"`
}

// ConditionConfig makes Hyperparameter active only where Expression holds.
type ConditionConfig struct {
	Hyperparameter string           `yaml:"hyperparameter" validate:"required,identifier"`
	Expression     ExpressionConfig `yaml:"expression"`
}

// ExpressionConfig is one node of an expression tree. Exactly one of Op,
// Var and Lit is set: Op names an operator by symbol or name and Args holds
// its operands, Var references a hyperparameter by name and Lit is a
// literal value.
type ExpressionConfig struct {
	Op   string             `yaml:"op,omitempty"`
	Args []ExpressionConfig `yaml:"args,omitempty" validate:"dive"`
	Var  string             `yaml:"var,omitempty" validate:"omitempty,identifier"`
	Lit  *Scalar            `yaml:"lit,omitempty"`
}

// ObjectiveSpaceConfig declares the measured hyperparameters and the
// objectives computed from them.
type ObjectiveSpaceConfig struct {
	Hyperparameters []HyperparameterConfig `yaml:"hyperparameters" validate:"required,min=1,dive"`
	Objectives      []ObjectiveConfig      `yaml:"objectives" validate:"required,min=1,dive"`
}

// ObjectiveConfig declares one objective and its direction.
type ObjectiveConfig struct {
	Expression ExpressionConfig `yaml:"expression"`
	Type       string           `yaml:"type" validate:"required,oneof=minimize maximize"`
}

// TunerConfig selects a tuner implementation from the TunerRegistry.
type TunerConfig struct {
	Type string `yaml:"type" validate:"required,identifier"`
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Budget caps the configurations and evaluations of the study.
	Budget *BudgetConfig `yaml:"budget,omitempty"`
	// RateLimit throttles how fast configurations are handed out.
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// BudgetConfig establishes limits on how much work a study may consume.
// Zero leaves a limit unset.
type BudgetConfig struct {
	MaxConfigurations int64 `yaml:"max_configurations,omitempty" validate:"gte=0"`
	MaxEvaluations    int64 `yaml:"max_evaluations,omitempty" validate:"gte=0"`
}

// RateLimitConfig is a token bucket over asked configurations.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" validate:"gt=0"`
	// Burst defaults to one.
	Burst int `yaml:"burst,omitempty" validate:"gte=0"`
}
