package formula

import (
	"fmt"
	"strings"
)

// Node is a parsed arithmetic expression.
type Node interface {
	Eval(vars Vars) float64
	refs(out *[]string)
}

type numberNode struct {
	value float64
}

type refNode struct {
	name string
	path []string
}

type unaryNode struct {
	op      tokenKind
	operand Node
}

type binaryNode struct {
	op          tokenKind
	left, right Node
}

// ErrEmpty is returned by Parse when a formula holds no expression at all.
var ErrEmpty = &SyntaxError{Pos: 0, Msg: "empty formula"}

// Parse builds the expression tree for a formula.
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | primary
//	primary := number | ref | '(' expr ')'
func Parse(src string) (Node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, ErrEmpty
	}
	p := &parser{tokens: tokens}
	node, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.kind)}
	}
	return node, nil
}

// Validate reports whether a formula parses. Blank formulas are valid.
func Validate(src string) error {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	_, err := Parse(src)
	return err
}

// References lists the variable names used by a formula, in order of first use.
func References(src string) []string {
	node, err := Parse(src)
	if err != nil {
		return nil
	}
	var names []string
	node.refs(&names)
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expr() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) term() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) unary() (Node, error) {
	tok := p.peek()
	if tok.kind == tokPlus || tok.kind == tokMinus {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.kind, operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &numberNode{value: tok.value}, nil
	case tokRef:
		return &refNode{name: tok.text, path: tok.path}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: fmt.Sprintf("expected ')' but found %s", closing.kind)}
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.kind)}
	}
}

func (n *numberNode) Eval(Vars) float64 { return n.value }

func (n *numberNode) refs(*[]string) {}

// Eval resolves the reference. Strings, booleans and missing values count as zero.
func (n *refNode) Eval(vars Vars) float64 {
	value, ok := vars.Lookup(n.path)
	if !ok {
		return 0
	}
	number, ok := toNumber(value)
	if !ok {
		return 0
	}
	return number
}

func (n *refNode) refs(out *[]string) { *out = append(*out, n.name) }

func (n *unaryNode) Eval(vars Vars) float64 {
	value := n.operand.Eval(vars)
	if n.op == tokMinus {
		return -value
	}
	return value
}

func (n *unaryNode) refs(out *[]string) { n.operand.refs(out) }

func (n *binaryNode) Eval(vars Vars) float64 {
	left := n.left.Eval(vars)
	right := n.right.Eval(vars)
	switch n.op {
	case tokPlus:
		return left + right
	case tokMinus:
		return left - right
	case tokStar:
		return left * right
	default:
		return left / right
	}
}

func (n *binaryNode) refs(out *[]string) {
	n.left.refs(out)
	n.right.refs(out)
}
