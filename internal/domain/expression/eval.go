package expression

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// ranker is implemented by hyperparameters whose values carry an order.
type ranker interface {
	CompareValues(a, b domain.Value) (int, error)
}

// Eval evaluates the tree. ctx and values are only needed when the tree
// holds variables; values[i] binds the hyperparameter at index i of ctx.
// A variable bound to an inactive value aborts the whole evaluation with
// ErrInactiveHyperparameter.
func (e *Expression) Eval(ctx Context, values []domain.Value) (domain.Value, error) {
	switch e.kind {
	case KindLiteral:
		return e.value, nil
	case KindVariable:
		return e.evalVariable(ctx, values)
	case KindList:
		out := make([]domain.Value, len(e.nodes))
		for i, n := range e.nodes {
			v, err := n.Eval(ctx, values)
			if err != nil {
				return domain.Value{}, err
			}
			out[i] = v
		}
		return domain.List(out), nil
	case KindOr, KindAnd:
		return e.evalLogical(ctx, values)
	case KindNot:
		v, err := e.evalBoolNode(ctx, values, 0)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.Bool(!v), nil
	case KindPositive, KindNegative:
		return e.evalSign(ctx, values)
	case KindAdd, KindSubtract, KindMultiply, KindDivide, KindModulo:
		return e.evalArithmetic(ctx, values)
	case KindEqual, KindNotEqual:
		l, r, err := e.evalOperands(ctx, values)
		if err != nil {
			return domain.Value{}, err
		}
		eq := equalValues(l, r)
		return domain.Bool(eq == (e.kind == KindEqual)), nil
	case KindLess, KindGreater, KindLessOrEqual, KindGreaterOrEqual:
		return e.evalOrdering(ctx, values)
	case KindIn:
		return e.evalIn(ctx, values)
	default:
		return domain.Value{}, fmt.Errorf("eval %s: %w", e.kind, domain.ErrInvalidExpression)
	}
}

// EvalBool evaluates the tree and requires a boolean result.
func (e *Expression) EvalBool(ctx Context, values []domain.Value) (bool, error) {
	v, err := e.Eval(ctx, values)
	if err != nil {
		return false, err
	}
	if v.Kind() != domain.KindBoolean {
		return false, fmt.Errorf("%s evaluated to %s, not a boolean: %w", e, v.Kind(), domain.ErrInvalidValue)
	}
	return v.Bool(), nil
}

// EvalListNode evaluates entry i of a list node without materializing the
// other entries.
func (e *Expression) EvalListNode(ctx Context, values []domain.Value, i int) (domain.Value, error) {
	if e.kind != KindList {
		return domain.Value{}, fmt.Errorf("%s is not a list: %w", e.kind, domain.ErrInvalidExpression)
	}
	if i < 0 || i >= len(e.nodes) {
		return domain.Value{}, fmt.Errorf("list entry %d of %d: %w", i, len(e.nodes), domain.ErrOutOfBounds)
	}
	return e.nodes[i].Eval(ctx, values)
}

func (e *Expression) evalVariable(ctx Context, values []domain.Value) (domain.Value, error) {
	if ctx == nil {
		return domain.Value{}, fmt.Errorf("variable %s without context: %w", e.hp.Name(), domain.ErrInvalidObject)
	}
	if values == nil {
		return domain.Value{}, fmt.Errorf("variable %s without values: %w", e.hp.Name(), domain.ErrInvalidValue)
	}
	i, err := ctx.HyperparameterIndex(e.hp)
	if err != nil {
		return domain.Value{}, err
	}
	if i >= len(values) {
		return domain.Value{}, fmt.Errorf("variable %s bound at %d of %d values: %w", e.hp.Name(), i, len(values), domain.ErrInvalidValue)
	}
	v := values[i]
	if v.IsInactive() {
		return domain.Value{}, fmt.Errorf("variable %s: %w", e.hp.Name(), domain.ErrInactiveHyperparameter)
	}
	return v, nil
}

func (e *Expression) evalBoolNode(ctx Context, values []domain.Value, i int) (bool, error) {
	v, err := e.nodes[i].Eval(ctx, values)
	if err != nil {
		return false, err
	}
	if v.Kind() != domain.KindBoolean {
		return false, fmt.Errorf("%s operand %s is %s: %w", e.kind, e.nodes[i], v.Kind(), domain.ErrInvalidValue)
	}
	return v.Bool(), nil
}

func (e *Expression) evalLogical(ctx Context, values []domain.Value) (domain.Value, error) {
	l, err := e.evalBoolNode(ctx, values, 0)
	if err != nil {
		return domain.Value{}, err
	}
	if e.kind == KindOr && l {
		return domain.Bool(true), nil
	}
	if e.kind == KindAnd && !l {
		return domain.Bool(false), nil
	}
	r, err := e.evalBoolNode(ctx, values, 1)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Bool(r), nil
}

func (e *Expression) evalSign(ctx Context, values []domain.Value) (domain.Value, error) {
	v, err := e.nodes[0].Eval(ctx, values)
	if err != nil {
		return domain.Value{}, err
	}
	switch {
	case !v.IsNumeric():
		return domain.Value{}, fmt.Errorf("%s of %s: %w", e.kind, v.Kind(), domain.ErrInvalidValue)
	case e.kind == KindPositive:
		return v, nil
	case v.Kind() == domain.KindInteger:
		if v.Int() == math.MinInt64 {
			return domain.Value{}, fmt.Errorf("negation of %d overflows: %w", v.Int(), domain.ErrInvalidValue)
		}
		return domain.Int(-v.Int()), nil
	default:
		return domain.Float(-v.Float()), nil
	}
}

func (e *Expression) evalArithmetic(ctx Context, values []domain.Value) (domain.Value, error) {
	l, err := e.nodes[0].Eval(ctx, values)
	if err != nil {
		return domain.Value{}, err
	}
	r, err := e.nodes[1].Eval(ctx, values)
	if err != nil {
		return domain.Value{}, err
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return domain.Value{}, fmt.Errorf("%s of %s and %s: %w", e.kind, l.Kind(), r.Kind(), domain.ErrInvalidValue)
	}

	if l.Kind() == domain.KindInteger && r.Kind() == domain.KindInteger {
		return e.intArithmetic(l.Int(), r.Int())
	}

	a, _ := l.AsFloat()
	b, _ := r.AsFloat()
	switch e.kind {
	case KindAdd:
		return domain.Float(a + b), nil
	case KindSubtract:
		return domain.Float(a - b), nil
	case KindMultiply:
		return domain.Float(a * b), nil
	case KindDivide:
		return domain.Float(a / b), nil
	default:
		return domain.Float(math.Mod(a, b)), nil
	}
}

// intArithmetic applies the operator to two integers. Results that do not
// fit in int64 are errors rather than wrapping.
func (e *Expression) intArithmetic(a, b int64) (domain.Value, error) {
	overflow := func() (domain.Value, error) {
		return domain.Value{}, fmt.Errorf("%d %s %d overflows: %w", a, e.kind, b, domain.ErrInvalidValue)
	}
	switch e.kind {
	case KindAdd:
		c := a + b
		if (c > a) != (b > 0) {
			return overflow()
		}
		return domain.Int(c), nil
	case KindSubtract:
		c := a - b
		if (c < a) != (b > 0) {
			return overflow()
		}
		return domain.Int(c), nil
	case KindMultiply:
		if a == 0 || b == 0 {
			return domain.Int(0), nil
		}
		c := a * b
		if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return overflow()
		}
		return domain.Int(c), nil
	}
	if b == 0 {
		return domain.Value{}, fmt.Errorf("integer %s by zero: %w", e.kind, domain.ErrInvalidValue)
	}
	if b == -1 && a == math.MinInt64 {
		if e.kind == KindModulo {
			return domain.Int(0), nil
		}
		return overflow()
	}
	if e.kind == KindDivide {
		return domain.Int(a / b), nil
	}
	return domain.Int(a % b), nil
}

// evalOperands evaluates both sides of a comparison. When one side is a
// variable, the other side is normalized through its hyperparameter so
// that, for example, an integer literal matches a float domain.
func (e *Expression) evalOperands(ctx Context, values []domain.Value) (domain.Value, domain.Value, error) {
	l, err := e.nodes[0].Eval(ctx, values)
	if err != nil {
		return l, l, err
	}
	r, err := e.nodes[1].Eval(ctx, values)
	if err != nil {
		return l, r, err
	}
	if h := e.nodes[0].variable(); h != nil {
		r = normalize(h, r)
	} else if h := e.nodes[1].variable(); h != nil {
		l = normalize(h, l)
	}
	return l, r, nil
}

func (e *Expression) variable() hyperparameter.Hyperparameter {
	if e.kind == KindVariable {
		return e.hp
	}
	return nil
}

func normalize(h hyperparameter.Hyperparameter, v domain.Value) domain.Value {
	if nv, ok := h.Validate(v); ok {
		return nv
	}
	return v
}

// equalValues compares numerics after promotion and everything else by
// kind and payload. Mixed kinds are unequal rather than an error.
func equalValues(a, b domain.Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.Kind() == b.Kind() {
			return a.Equal(b)
		}
		fa, _ := a.AsFloat()
		fb, _ := b.AsFloat()
		return fa == fb
	}
	return a.Kind() == b.Kind() && a.Equal(b)
}

func (e *Expression) evalOrdering(ctx Context, values []domain.Value) (domain.Value, error) {
	l, r, err := e.evalOperands(ctx, values)
	if err != nil {
		return domain.Value{}, err
	}

	var c int
	switch {
	case e.ranker() != nil:
		c, err = e.ranker().CompareValues(l, r)
		if err != nil {
			return domain.Value{}, fmt.Errorf("%s: %w", e.kind, err)
		}
	case l.Kind() == domain.KindInteger && r.Kind() == domain.KindInteger:
		c = cmp.Compare(l.Int(), r.Int())
	case l.IsNumeric() && r.IsNumeric():
		a, _ := l.AsFloat()
		b, _ := r.AsFloat()
		if math.IsNaN(a) || math.IsNaN(b) {
			return domain.Bool(false), nil
		}
		c = cmp.Compare(a, b)
	case l.Kind() == domain.KindString && r.Kind() == domain.KindString:
		c = strings.Compare(l.Str(), r.Str())
	default:
		return domain.Value{}, fmt.Errorf("%s of %s and %s: %w", e.kind, l.Kind(), r.Kind(), domain.ErrInvalidValue)
	}

	switch e.kind {
	case KindLess:
		return domain.Bool(c < 0), nil
	case KindGreater:
		return domain.Bool(c > 0), nil
	case KindLessOrEqual:
		return domain.Bool(c <= 0), nil
	default:
		return domain.Bool(c >= 0), nil
	}
}

// ranker returns the ordered hyperparameter behind either operand, if any.
func (e *Expression) ranker() ranker {
	for _, n := range e.nodes {
		if r, ok := n.variable().(ranker); ok {
			return r
		}
	}
	return nil
}

func (e *Expression) evalIn(ctx Context, values []domain.Value) (domain.Value, error) {
	list := e.nodes[1]
	if list.kind != KindList {
		return domain.Value{}, fmt.Errorf("right side of in is %s, not a list: %w", list.kind, domain.ErrInvalidValue)
	}
	l, err := e.nodes[0].Eval(ctx, values)
	if err != nil {
		return domain.Value{}, err
	}
	h := e.nodes[0].variable()
	for i := range list.nodes {
		item, err := list.EvalListNode(ctx, values, i)
		if err != nil {
			return domain.Value{}, err
		}
		if h != nil {
			item = normalize(h, item)
		}
		if equalValues(l, item) {
			return domain.Bool(true), nil
		}
	}
	return domain.Bool(false), nil
}
