package expression

import "strconv"

// Kind identifies the operator or terminal a node represents.
type Kind int

// Node kinds, in grammar order.
const (
	KindOr Kind = iota
	KindAnd
	KindEqual
	KindNotEqual
	KindLess
	KindGreater
	KindLessOrEqual
	KindGreaterOrEqual
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindModulo
	KindPositive
	KindNegative
	KindNot
	KindIn
	KindList
	KindLiteral
	KindVariable
	numKinds
)

// Associativity tells a parser how operators of equal precedence group.
type Associativity int

// Associativities.
const (
	AssociativityNone Associativity = iota
	LeftToRight
	RightToLeft
)

type kindInfo struct {
	name          string
	symbol        string
	precedence    int
	associativity Associativity
	arity         int
}

// Precedence follows C: 0 binds loosest. Lists and terminals bind tightest.
var kinds = [numKinds]kindInfo{
	KindOr:             {"or", "||", 0, LeftToRight, 2},
	KindAnd:            {"and", "&&", 1, LeftToRight, 2},
	KindEqual:          {"equal", "==", 2, LeftToRight, 2},
	KindNotEqual:       {"not_equal", "!=", 2, LeftToRight, 2},
	KindLess:           {"less", "<", 3, LeftToRight, 2},
	KindGreater:        {"greater", ">", 3, LeftToRight, 2},
	KindLessOrEqual:    {"less_or_equal", "<=", 3, LeftToRight, 2},
	KindGreaterOrEqual: {"greater_or_equal", ">=", 3, LeftToRight, 2},
	KindAdd:            {"add", "+", 4, LeftToRight, 2},
	KindSubtract:       {"subtract", "-", 4, LeftToRight, 2},
	KindMultiply:       {"multiply", "*", 5, LeftToRight, 2},
	KindDivide:         {"divide", "/", 5, LeftToRight, 2},
	KindModulo:         {"modulo", "%", 5, LeftToRight, 2},
	KindPositive:       {"positive", "+", 6, RightToLeft, 1},
	KindNegative:       {"negative", "-", 6, RightToLeft, 1},
	KindNot:            {"not", "!", 6, RightToLeft, 1},
	KindIn:             {"in", "#", 7, LeftToRight, 2},
	KindList:           {"list", "", 8, LeftToRight, -1},
	KindLiteral:        {"literal", "", 9, AssociativityNone, 0},
	KindVariable:       {"variable", "", 9, AssociativityNone, 0},
}

// Valid reports whether k is a defined kind.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

// String returns the snake_case kind name.
func (k Kind) String() string {
	if !k.Valid() {
		return "expression_kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kinds[k].name
}

// Symbol returns the operator symbol, empty for lists and terminals.
func (k Kind) Symbol() string {
	if !k.Valid() {
		return ""
	}
	return kinds[k].symbol
}

// Precedence returns the binding strength of the kind.
func (k Kind) Precedence() int {
	if !k.Valid() {
		return -1
	}
	return kinds[k].precedence
}

// Associativity returns how the kind groups with itself.
func (k Kind) Associativity() Associativity {
	if !k.Valid() {
		return AssociativityNone
	}
	return kinds[k].associativity
}

// Arity returns the number of child nodes, -1 meaning any.
func (k Kind) Arity() int {
	if !k.Valid() {
		return 0
	}
	return kinds[k].arity
}

// LookupKind resolves an operator by symbol or name. Symbols shared by a
// unary and a binary operator are disambiguated by arity.
func LookupKind(s string, arity int) (Kind, bool) {
	for k := Kind(0); k < numKinds; k++ {
		info := kinds[k]
		if info.name == s || (info.symbol != "" && info.symbol == s && (info.arity == arity || info.arity < 0)) {
			return k, true
		}
	}
	return 0, false
}

// Terminal identifies a lexical terminal of the expression grammar.
type Terminal int

// Terminals.
const (
	TerminalNone Terminal = iota
	TerminalTrue
	TerminalFalse
	TerminalString
	TerminalIdentifier
	TerminalInteger
	TerminalFloat
	numTerminals
)

type terminalInfo struct {
	regexp     string
	symbol     string
	precedence int
}

// Keyword terminals outrank identifiers so that "none" is never a name.
var terminals = [numTerminals]terminalInfo{
	TerminalNone:       {`none`, "none", 1},
	TerminalTrue:       {`true`, "true", 1},
	TerminalFalse:      {`false`, "false", 1},
	TerminalString:     {`"([^\0\t\n\r\f"\\]|\\[0tnrf"\\])+"|'([^\0\t\n\r\f'\\]|\\[0tnrf'\\])+'`, "", 0},
	TerminalIdentifier: {`[a-zA-Z_][a-zA-Z_0-9]*`, "", 0},
	TerminalInteger:    {`-?[0-9]+`, "", 0},
	TerminalFloat:      {`-?[0-9]+([eE][+-]?[0-9]+|\.[0-9]+([eE][+-]?[0-9]+)?)`, "", 0},
}

// Regexp returns the pattern matching the terminal.
func (t Terminal) Regexp() string {
	if t < 0 || t >= numTerminals {
		return ""
	}
	return terminals[t].regexp
}

// Symbol returns the literal spelling of keyword terminals.
func (t Terminal) Symbol() string {
	if t < 0 || t >= numTerminals {
		return ""
	}
	return terminals[t].symbol
}

// Precedence returns the tie break used when several terminals match.
func (t Terminal) Precedence() int {
	if t < 0 || t >= numTerminals {
		return -1
	}
	return terminals[t].precedence
}
