package formula

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokRef
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of formula"
	case tokNumber:
		return "number"
	case tokRef:
		return "variable"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "token"
	}
}

type token struct {
	kind  tokenKind
	pos   int
	text  string
	value float64
	path  []string
}

// SyntaxError reports the position of the first malformed construct.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula: %s at position %d", e.Msg, e.Pos)
}

// tokenize splits a formula into tokens. Characters that cannot take part in
// an arithmetic expression are skipped. Anything glued to a numeric literal
// other than digits and '.' is dropped from it, so "1,000" reads as 1000 and
// "2abc" as 2.
func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isSpace(c):
			i++
		case isDigit(c) || c == '.':
			start := i
			var digits strings.Builder
			for i < len(src) && !isSpace(src[i]) && !isOperator(src[i]) {
				if isDigit(src[i]) || src[i] == '.' {
					digits.WriteByte(src[i])
				}
				i++
			}
			value, err := strconv.ParseFloat(digits.String(), 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", digits.String())}
			}
			tokens = append(tokens, token{kind: tokNumber, pos: start, text: src[start:i], value: value})
		case isIdentStart(c):
			start := i
			path := []string{scanIdent(src, &i)}
			for i+1 < len(src) && src[i] == '.' && isIdentStart(src[i+1]) {
				i++
				path = append(path, scanIdent(src, &i))
			}
			tokens = append(tokens, token{kind: tokRef, pos: start, text: src[start:i], path: path})
		case c == '+':
			tokens = append(tokens, token{kind: tokPlus, pos: i, text: "+"})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokMinus, pos: i, text: "-"})
			i++
		case c == '*':
			tokens = append(tokens, token{kind: tokStar, pos: i, text: "*"})
			i++
		case c == '/':
			tokens = append(tokens, token{kind: tokSlash, pos: i, text: "/"})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i, text: ")"})
			i++
		default:
			i++
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func scanIdent(src string, i *int) string {
	start := *i
	*i++
	for *i < len(src) && isWord(src[*i]) {
		*i++
	}
	return src[start:*i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWord(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
