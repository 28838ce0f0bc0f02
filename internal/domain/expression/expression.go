// Package expression implements the typed expression trees used for
// activation conditions, forbidden clauses and objectives. Trees are
// immutable once built and evaluate against a Context that binds variables
// to values by position.
package expression

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// Context resolves the hyperparameters referenced by variables. Configuration
// and objective spaces both play this role.
type Context interface {
	// NumHyperparameters returns the number of bound positions.
	NumHyperparameters() int

	// Hyperparameter returns the hyperparameter at index i.
	Hyperparameter(i int) (hyperparameter.Hyperparameter, error)

	// HyperparameterByName looks a hyperparameter up by name.
	HyperparameterByName(name string) (hyperparameter.Hyperparameter, error)

	// HyperparameterIndex returns the position of h, compared by identity.
	HyperparameterIndex(h hyperparameter.Hyperparameter) (int, error)
}

// Expression is one node of an expression tree.
type Expression struct {
	kind  Kind
	nodes []*Expression
	value domain.Value
	hp    hyperparameter.Hyperparameter
}

// New builds a node of the given operator kind. Nodes may be expressions,
// hyperparameters (turned into variables), domain values (turned into
// literals, or unwrapped when they hold an object) or plain Go scalars.
func New(kind Kind, nodes ...any) (*Expression, error) {
	if !kind.Valid() || kind == KindLiteral || kind == KindVariable {
		return nil, fmt.Errorf("new expression of kind %s: %w", kind, domain.ErrInvalidValue)
	}
	if arity := kind.Arity(); arity >= 0 && len(nodes) != arity {
		return nil, fmt.Errorf("%s takes %d nodes, got %d: %w", kind, arity, len(nodes), domain.ErrInvalidValue)
	}
	e := &Expression{kind: kind, nodes: make([]*Expression, len(nodes))}
	for i, n := range nodes {
		child, err := toNode(n)
		if err != nil {
			return nil, fmt.Errorf("%s node %d: %w", kind, i, err)
		}
		e.nodes[i] = child
	}
	return e, nil
}

// Binary is New for two operand operators.
func Binary(kind Kind, left, right any) (*Expression, error) {
	if kind.Arity() != 2 {
		return nil, fmt.Errorf("%s is not binary: %w", kind, domain.ErrInvalidValue)
	}
	return New(kind, left, right)
}

// Unary is New for single operand operators.
func Unary(kind Kind, node any) (*Expression, error) {
	if kind.Arity() != 1 {
		return nil, fmt.Errorf("%s is not unary: %w", kind, domain.ErrInvalidValue)
	}
	return New(kind, node)
}

// List builds a list node from any number of items.
func List(items ...any) (*Expression, error) { return New(KindList, items...) }

// Literal wraps a none, integer, float, boolean or string value. Strings
// are memoized so the literal never aliases caller memory.
func Literal(v domain.Value) (*Expression, error) {
	switch v.Kind() {
	case domain.KindNone, domain.KindInteger, domain.KindFloat, domain.KindBoolean:
		return &Expression{kind: KindLiteral, value: v.WithFlags(0)}, nil
	case domain.KindString:
		return &Expression{kind: KindLiteral, value: domain.String(strings.Clone(v.Str()))}, nil
	default:
		return nil, fmt.Errorf("literal of kind %s: %w", v.Kind(), domain.ErrInvalidValue)
	}
}

// Variable references a hyperparameter.
func Variable(h hyperparameter.Hyperparameter) (*Expression, error) {
	if h == nil {
		return nil, fmt.Errorf("variable of nil hyperparameter: %w", domain.ErrInvalidObject)
	}
	return &Expression{kind: KindVariable, hp: h}, nil
}

func toNode(n any) (*Expression, error) {
	switch v := n.(type) {
	case *Expression:
		if v == nil {
			return nil, fmt.Errorf("nil expression: %w", domain.ErrInvalidObject)
		}
		return v, nil
	case hyperparameter.Hyperparameter:
		return Variable(v)
	case domain.Value:
		if v.Kind() == domain.KindObject {
			switch o := v.Object().(type) {
			case *Expression, hyperparameter.Hyperparameter:
				return toNode(o)
			default:
				return nil, fmt.Errorf("object of type %T: %w", o, domain.ErrInvalidObject)
			}
		}
		return Literal(v)
	default:
		val, err := domain.FromAny(n)
		if err != nil {
			return nil, fmt.Errorf("node %v: %w", n, domain.ErrInvalidValue)
		}
		return Literal(val)
	}
}

// Kind returns the node kind.
func (e *Expression) Kind() Kind { return e.kind }

// NumNodes returns the number of children.
func (e *Expression) NumNodes() int { return len(e.nodes) }

// Node returns child i.
func (e *Expression) Node(i int) (*Expression, error) {
	if i < 0 || i >= len(e.nodes) {
		return nil, fmt.Errorf("node %d of %d: %w", i, len(e.nodes), domain.ErrOutOfBounds)
	}
	return e.nodes[i], nil
}

// Nodes returns a copy of the children.
func (e *Expression) Nodes() []*Expression { return append([]*Expression(nil), e.nodes...) }

// CopyNodes copies the children into dst using the two-phase query idiom.
func (e *Expression) CopyNodes(dst []*Expression) (int, error) { return domain.CopyOut(dst, e.nodes) }

// LiteralValue returns the value of a literal node.
func (e *Expression) LiteralValue() (domain.Value, error) {
	if e.kind != KindLiteral {
		return domain.Value{}, fmt.Errorf("%s node has no literal value: %w", e.kind, domain.ErrInvalidExpression)
	}
	return e.value, nil
}

// VariableHyperparameter returns the hyperparameter of a variable node.
func (e *Expression) VariableHyperparameter() (hyperparameter.Hyperparameter, error) {
	if e.kind != KindVariable {
		return nil, fmt.Errorf("%s node has no hyperparameter: %w", e.kind, domain.ErrInvalidExpression)
	}
	return e.hp, nil
}

// Hyperparameters returns every hyperparameter referenced in the tree,
// once each, in order of first appearance.
func (e *Expression) Hyperparameters() []hyperparameter.Hyperparameter {
	var out []hyperparameter.Hyperparameter
	seen := make(map[hyperparameter.Hyperparameter]struct{})
	e.walk(func(n *Expression) {
		if n.kind != KindVariable {
			return
		}
		if _, ok := seen[n.hp]; !ok {
			seen[n.hp] = struct{}{}
			out = append(out, n.hp)
		}
	})
	return out
}

func (e *Expression) walk(fn func(*Expression)) {
	fn(e)
	for _, n := range e.nodes {
		n.walk(fn)
	}
}

// CheckContext verifies, without evaluating, that every referenced
// hyperparameter belongs to ctx.
func (e *Expression) CheckContext(ctx Context) error {
	for _, h := range e.Hyperparameters() {
		if ctx == nil {
			return fmt.Errorf("variable %s needs a context: %w", h.Name(), domain.ErrInvalidValue)
		}
		i, err := ctx.HyperparameterIndex(h)
		if err != nil {
			return fmt.Errorf("variable %s: %w", h.Name(), domain.ErrInvalidHyperparameter)
		}
		if got, err := ctx.Hyperparameter(i); err != nil || got != h {
			return fmt.Errorf("variable %s resolves to another hyperparameter: %w", h.Name(), domain.ErrInvalidHyperparameter)
		}
	}
	return nil
}

// String renders the tree with the fewest parentheses the precedence and
// associativity tables allow.
func (e *Expression) String() string {
	var b strings.Builder
	e.format(&b)
	return b.String()
}

func (e *Expression) format(b *strings.Builder) {
	switch e.kind {
	case KindLiteral:
		b.WriteString(e.value.String())
	case KindVariable:
		b.WriteString(e.hp.Name())
	case KindList:
		b.WriteByte('[')
		for i, n := range e.nodes {
			if i > 0 {
				b.WriteString(", ")
			}
			n.format(b)
		}
		b.WriteByte(']')
	default:
		if len(e.nodes) == 1 {
			b.WriteString(e.kind.Symbol())
			e.formatChild(b, e.nodes[0], false)
			return
		}
		e.formatChild(b, e.nodes[0], false)
		b.WriteString(" " + e.kind.Symbol() + " ")
		e.formatChild(b, e.nodes[1], true)
	}
}

func (e *Expression) formatChild(b *strings.Builder, child *Expression, right bool) {
	cp, p := child.kind.Precedence(), e.kind.Precedence()
	paren := cp < p
	if cp == p && len(e.nodes) == 2 {
		assoc := e.kind.Associativity()
		paren = (right && assoc == LeftToRight) || (!right && assoc == RightToLeft)
	}
	if paren {
		b.WriteByte('(')
	}
	child.format(b)
	if paren {
		b.WriteByte(')')
	}
}
