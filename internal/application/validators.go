package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// fold normalizes an enum word of a declaration so that "Numerical",
// "NUMERICAL" and "numerical" are the same type. Casers are stateful, so
// each call gets its own.
func fold(s string) string { return cases.Fold().String(s) }

// RegisterStudyValidators registers the custom validation functions used
// in StudyConfig struct tags: identifier, datatype and scale, plus the
// struct level rule for expression nodes.
func RegisterStudyValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("identifier", validateIdentifier); err != nil {
		return fmt.Errorf("failed to register identifier validator: %w", err)
	}

	if err := v.RegisterValidation("datatype", validateDataType); err != nil {
		return fmt.Errorf("failed to register datatype validator: %w", err)
	}

	if err := v.RegisterValidation("scale", validateScale); err != nil {
		return fmt.Errorf("failed to register scale validator: %w", err)
	}

	v.RegisterStructValidation(validateExpressionNode, ExpressionConfig{})
	return nil
}

// validateIdentifier accepts names a space will accept for its
// hyperparameters.
func validateIdentifier(fl validator.FieldLevel) bool {
	return hyperparameter.ValidName(fl.Field().String())
}

// validateDataType accepts the numeric data types "int" and "float".
func validateDataType(fl validator.FieldLevel) bool {
	switch fold(fl.Field().String()) {
	case "int", "integer", "float":
		return true
	default:
		return false
	}
}

// validateScale accepts the sampling scales "linear" and "logarithmic".
func validateScale(fl validator.FieldLevel) bool {
	switch fold(fl.Field().String()) {
	case "linear", "log", "logarithmic":
		return true
	default:
		return false
	}
}

// validateExpressionNode requires exactly one of op, var and lit, and
// operands only under an operator.
func validateExpressionNode(sl validator.StructLevel) {
	node := sl.Current().Interface().(ExpressionConfig)

	set := 0
	if node.Op != "" {
		set++
	}
	if node.Var != "" {
		set++
	}
	if node.Lit != nil {
		set++
	}
	if set != 1 {
		sl.ReportError(node.Op, "Op", "op", "exactly_one_of_op_var_lit", "")
	}
	if node.Op == "" && len(node.Args) > 0 {
		sl.ReportError(node.Args, "Args", "args", "args_need_op", "")
	}
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// registerCustomValidators registers every validator the loader relies on.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := RegisterStudyValidators(v); err != nil {
		return fmt.Errorf("failed to register study validators: %w", err)
	}

	return nil
}
