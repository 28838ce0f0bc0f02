package application

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Scalar is a YAML scalar decoded into a domain value. The YAML tag picks
// the kind, so 3 is an integer, 3.0 a float and "3" a string.
type Scalar struct {
	Value domain.Value
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar: %w", node.Line, domain.ErrInvalidType)
	}
	switch node.ShortTag() {
	case "!!null":
		s.Value = domain.None()
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		s.Value = domain.Bool(b)
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return fmt.Errorf("line %d: integer %q: %w", node.Line, node.Value, domain.ErrInvalidValue)
		}
		s.Value = domain.Int(i)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: float %q: %w", node.Line, node.Value, domain.ErrInvalidValue)
		}
		s.Value = domain.Float(f)
	case "!!str":
		s.Value = domain.String(node.Value)
	default:
		return fmt.Errorf("line %d: unsupported scalar tag %s: %w", node.Line, node.ShortTag(), domain.ErrInvalidType)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler. Floats keep a decimal point so the
// kind survives a round trip.
func (s Scalar) MarshalYAML() (any, error) {
	v := s.Value
	switch v.Kind() {
	case domain.KindNone:
		return nil, nil
	case domain.KindBoolean:
		return v.Bool(), nil
	case domain.KindInteger:
		return v.Int(), nil
	case domain.KindFloat:
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: strconv.FormatFloat(v.Float(), 'g', -1, 64),
		}, nil
	case domain.KindString:
		return v.Str(), nil
	default:
		return nil, fmt.Errorf("scalar of kind %s: %w", v.Kind(), domain.ErrInvalidType)
	}
}

// Float returns the scalar as a float64 when it is numeric.
func (s *Scalar) Float() (float64, bool) {
	if s == nil {
		return 0, false
	}
	return s.Value.AsFloat()
}
