package application

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/internal/domain"
)

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerCustomValidators(v))

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{"identifier", "learning_rate", true},
		{"identifier", "_x1", true},
		{"identifier", "1x", false},
		{"identifier", "a-b", false},
		{"identifier", "", false},
		{"datatype", "int", true},
		{"datatype", "Float", true},
		{"datatype", "INTEGER", true},
		{"datatype", "double", false},
		{"scale", "linear", true},
		{"scale", "Logarithmic", true},
		{"scale", "log", true},
		{"scale", "exp", false},
		{"semver", "1.0.0", true},
		{"semver", "10.2.33", true},
		{"semver", "1.0", false},
		{"semver", "-1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExpressionNodeValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerCustomValidators(v))

	lit := &Scalar{Value: domain.Int(1)}
	tests := []struct {
		name  string
		node  ExpressionConfig
		valid bool
	}{
		{name: "variable", node: ExpressionConfig{Var: "x"}, valid: true},
		{name: "literal", node: ExpressionConfig{Lit: lit}, valid: true},
		{name: "operator", node: ExpressionConfig{Op: "+", Args: []ExpressionConfig{{Var: "x"}, {Lit: lit}}}, valid: true},
		{name: "empty", node: ExpressionConfig{}},
		{name: "var and lit", node: ExpressionConfig{Var: "x", Lit: lit}},
		{name: "args without op", node: ExpressionConfig{Var: "x", Args: []ExpressionConfig{{Var: "y"}}}},
		{name: "invalid child", node: ExpressionConfig{Op: "!", Args: []ExpressionConfig{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.node)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestScalarDecoding(t *testing.T) {
	tests := []struct {
		doc  string
		want domain.Value
	}{
		{"3", domain.Int(3)},
		{"-7", domain.Int(-7)},
		{"3.0", domain.Float(3)},
		{"1e-3", domain.Float(0.001)},
		{"true", domain.Bool(true)},
		{"sgd", domain.String("sgd")},
		{`"3"`, domain.String("3")},
		{"~", domain.None()},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			var s Scalar
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &s))
			assert.True(t, tt.want.Equal(s.Value), "got %s", s.Value)
			assert.Equal(t, tt.want.Kind(), s.Value.Kind())

			out, err := yaml.Marshal(s)
			require.NoError(t, err)
			var back Scalar
			require.NoError(t, yaml.Unmarshal(out, &back))
			assert.Equal(t, s.Value.Kind(), back.Value.Kind(), "kind survives %q", strings.TrimSpace(string(out)))
		})
	}

	var s Scalar
	assert.Error(t, yaml.Unmarshal([]byte("[1, 2]"), &s))
}
