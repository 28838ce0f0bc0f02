package space

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Configuration binds one value per hyperparameter of a configuration
// space.
type Configuration struct {
	binding
	space *ConfigurationSpace
}

// NewConfiguration binds values to space. Nil values binds none
// everywhere. Values are stored as given; use Check or the space's
// CheckSemantic to validate them.
func NewConfiguration(space *ConfigurationSpace, values []domain.Value, opts ...BindingOption) (*Configuration, error) {
	if space == nil {
		return nil, fmt.Errorf("configuration of nil space: %w", domain.ErrInvalidObject)
	}
	b, err := newBinding(space.NumHyperparameters(), values, opts)
	if err != nil {
		return nil, domain.NewOperationError("configuration space", space.name, "new_configuration", err)
	}
	return &Configuration{binding: b, space: space}, nil
}

// Space returns the owning configuration space.
func (c *Configuration) Space() *ConfigurationSpace { return c.space }

// SetValue binds v to hyperparameter i after validating it.
func (c *Configuration) SetValue(i int, v domain.Value) error {
	return c.setValue(i, v, func(i int, v domain.Value) (domain.Value, bool) {
		return c.space.hps[i].Validate(v)
	})
}

// ValueByName returns the value bound to the named hyperparameter.
func (c *Configuration) ValueByName(name string) (domain.Value, error) {
	i, err := c.space.HyperparameterIndexByName(name)
	if err != nil {
		return domain.Value{}, err
	}
	return c.values[i], nil
}

// Check runs the space's structural check on c.
func (c *Configuration) Check() error { return c.space.CheckConfiguration(c) }

// CheckSemantic runs the space's full validity check on c.
func (c *Configuration) CheckSemantic() error { return c.space.CheckSemantic(c) }

// Hash is consistent with Cmp: equal configurations hash alike.
func (c *Configuration) Hash() uint64 {
	d := xxhash.New()
	hashValues(d, c.space.id, c.values)
	return d.Sum64()
}

// Cmp orders configurations by space, then value count, then values.
func (c *Configuration) Cmp(o *Configuration) int {
	if c == o {
		return 0
	}
	return cmpValues(c.space.id, o.space.id, c.values, o.values)
}

// String renders the configuration as name=value pairs.
func (c *Configuration) String() string {
	return formatBinding(c.space.hps, c.values)
}
