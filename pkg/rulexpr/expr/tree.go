package expr

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// NodeID addresses a node in an Expression's arena.
type NodeID int

const noNode NodeID = -1

type nodeKind int

const (
	// kindGroup is the root or a parenthesized group: terms joined by
	// AND/OR, each optionally preceded by NOT.
	kindGroup nodeKind = iota

	// kindTerm holds operands, arithmetic operators and at most one
	// comparator.
	kindTerm

	// kindFunction starts with its function token and holds operands.
	kindFunction
)

func (k nodeKind) String() string {
	switch k {
	case kindGroup:
		return "group"
	case kindTerm:
		return "term"
	default:
		return "function"
	}
}

// child is either a token or a nested node.
type child struct {
	tok  *Token
	node NodeID
}

type node struct {
	kind     nodeKind
	parent   NodeID
	children []child

	// nature is the operand nature. A term with a comparator, or a group
	// with logical operators, is LOGICAL overall; see effective.
	nature     Nature
	comparator *Token

	// logical is set on a group once it holds AND, OR or NOT.
	logical bool

	fn   aggregate.Func
	open bool

	forceLogical  bool
	forbidLogical bool

	// first is the token that opened the node, for error positions.
	first *Token

	vars []*variable.Variable
}

func (n *node) effective() Nature {
	if n.comparator != nil || n.logical {
		return NatureLogical
	}
	return n.nature
}

// resultNature is the nature a function node yields.
func (n *node) resultNature() Nature {
	if n.fn.Numeric() {
		return NatureNumeric
	}
	return n.nature
}

func (n *node) addVar(v *variable.Variable) {
	for _, have := range n.vars {
		if have == v {
			return
		}
	}
	n.vars = append(n.vars, v)
}

// Expression is a parsed expression tree. It is owned by the caller that
// parsed it and is not safe for concurrent evaluation.
type Expression struct {
	source string
	tokens []*Token
	nodes  []*node
	root   NodeID
	nature Nature
	vars   variable.List
	cfg    config

	// depth counts parser re-entries; GLOBAL and compound function operands
	// are parsed again during evaluation.
	depth int
}

func (e *Expression) add(kind nodeKind, parent NodeID) NodeID {
	id := NodeID(len(e.nodes))
	e.nodes = append(e.nodes, &node{kind: kind, parent: parent})
	if parent != noNode {
		p := e.nodes[parent]
		p.children = append(p.children, child{node: id})
	}
	return id
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

// Tokens returns the token stream, without the end sentinel.
func (e *Expression) Tokens() []*Token {
	return e.tokens
}

// Nature returns the nature of the whole expression.
func (e *Expression) Nature() Nature {
	return e.nature
}

// Variables returns every caller variable referenced by the expression,
// in order of first reference.
func (e *Expression) Variables() []*variable.Variable {
	return e.nodes[e.root].vars
}

// String returns the printable token stream.
func (e *Expression) String() string {
	return Format(e.tokens)
}

// Tree renders the node structure, one node or token per line.
func (e *Expression) Tree() string {
	var sb strings.Builder
	e.dump(&sb, e.root, 0)
	return sb.String()
}

func (e *Expression) dump(sb *strings.Builder, id NodeID, depth int) {
	n := e.nodes[id]
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s [%s]\n", indent, n.kind, n.effective())
	for _, c := range n.children {
		if c.tok == nil {
			e.dump(sb, c.node, depth+1)
			continue
		}
		fmt.Fprintf(sb, "%s  %s (%s)\n", indent, c.tok.String(), c.tok.Class)
	}
}
