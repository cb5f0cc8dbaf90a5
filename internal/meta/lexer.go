package meta

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokEq
	tokPlusEq
	tokComma
	tokMinus
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokEq:
		return "'='"
	case tokPlusEq:
		return "'+='"
	case tokComma:
		return "','"
	case tokMinus:
		return "'-'"
	}
	return "unknown token"
}

type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

// next returns the next token, skipping whitespace and # comments.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return token{tokLParen, "(", l.line}, nil
		case c == ')':
			l.pos++
			return token{tokRParen, ")", l.line}, nil
		case c == ',':
			l.pos++
			return token{tokComma, ",", l.line}, nil
		case c == '-':
			l.pos++
			return token{tokMinus, "-", l.line}, nil
		case c == '=':
			l.pos++
			return token{tokEq, "=", l.line}, nil
		case c == '+':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '=' {
				l.pos += 2
				return token{tokPlusEq, "+=", l.line}, nil
			}
			return token{}, fmt.Errorf("line %d: stray '+'", l.line)
		case c == '"':
			return l.scanString()
		case isIdentStart(c):
			return l.scanIdent(), nil
		default:
			return token{}, fmt.Errorf("line %d: unexpected character %q", l.line, c)
		}
	}
	return token{tokEOF, "", l.line}, nil
}

func (l *lexer) scanString() (token, error) {
	start := l.line
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, fmt.Errorf("line %d: dangling escape", l.line)
			}
			b.WriteByte(l.src[l.pos+1])
			l.pos += 2
		case '"':
			l.pos++
			return token{tokString, b.String(), start}, nil
		case '\n':
			l.line++
			b.WriteByte(c)
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("line %d: unterminated string", start)
}

func (l *lexer) scanIdent() token {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	return token{tokIdent, l.src[start:l.pos], l.line}
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '.' || c == '\''
}
