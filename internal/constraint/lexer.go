package constraint

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp      // relational and logical symbols
	tokLParen  // (
	tokRParen  // )
	tokDot     // .
	tokComma   // ,
	tokForeign // recognised but unsupported: ! + - * / % [ ] ? : { }
	tokIllegal
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer scans constraint source one rune at a time.
type lexer struct {
	in      string
	offset  int
	current rune
	width   int
}

func newLexer(in string) *lexer {
	l := &lexer{in: in}
	l.decode()
	return l
}

func (l *lexer) decode() {
	if l.offset >= len(l.in) {
		l.current, l.width = 0, 0
		return
	}
	l.current, l.width = utf8.DecodeRuneInString(l.in[l.offset:])
}

func (l *lexer) next() rune {
	l.offset += l.width
	l.decode()
	return l.current
}

func (l *lexer) peek() rune {
	if l.offset+l.width >= len(l.in) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.in[l.offset+l.width:])
	return r
}

func (l *lexer) skipBlank() {
	for l.width > 0 && unicode.IsSpace(l.current) {
		l.next()
	}
}

// scan returns the next token. Unterminated strings yield tokIllegal with
// the reason in text.
func (l *lexer) scan() token {
	l.skipBlank()
	start := l.offset
	if l.width == 0 {
		return token{kind: tokEOF, pos: start}
	}

	c := l.current
	switch {
	case c == '_' || c == '$' || unicode.IsLetter(c):
		for l.width > 0 && (l.current == '_' || l.current == '$' || unicode.IsLetter(l.current) || unicode.IsDigit(l.current)) {
			l.next()
		}
		return token{kind: tokIdent, text: l.in[start:l.offset], pos: start}

	case unicode.IsDigit(c):
		return l.scanNumber(start)

	case c == '"' || c == '\'':
		return l.scanString(start, c)
	}

	one := func(k tokenKind) token {
		l.next()
		return token{kind: k, text: l.in[start:l.offset], pos: start}
	}

	switch c {
	case '(':
		return one(tokLParen)
	case ')':
		return one(tokRParen)
	case ',':
		return one(tokComma)
	case '.':
		return one(tokDot)
	case '=', '!':
		l.next()
		if l.current != '=' {
			if c == '!' {
				return token{kind: tokForeign, text: "!", pos: start}
			}
			return token{kind: tokIllegal, text: "single '=' is not an operator", pos: start}
		}
		l.next()
		if l.current == '=' {
			l.next()
		}
		return token{kind: tokOp, text: l.in[start:l.offset], pos: start}
	case '<', '>':
		l.next()
		if l.current == '=' {
			l.next()
		}
		return token{kind: tokOp, text: l.in[start:l.offset], pos: start}
	case '&', '|':
		if l.peek() == c {
			l.next()
			l.next()
			return token{kind: tokOp, text: l.in[start:l.offset], pos: start}
		}
		return one(tokForeign)
	case '+', '-', '*', '/', '%', '[', ']', '?', ':', '{', '}':
		return one(tokForeign)
	}
	l.next()
	return token{kind: tokIllegal, text: "unexpected character " + string(c), pos: start}
}

func (l *lexer) scanNumber(start int) token {
	for l.width > 0 && unicode.IsDigit(l.current) {
		l.next()
	}
	if l.current == '.' && unicode.IsDigit(l.peek()) {
		l.next()
		for l.width > 0 && unicode.IsDigit(l.current) {
			l.next()
		}
	}
	return token{kind: tokNumber, text: l.in[start:l.offset], pos: start}
}

func (l *lexer) scanString(start int, quote rune) token {
	var b strings.Builder
	l.next()
	for {
		switch {
		case l.width == 0:
			return token{kind: tokIllegal, text: "unterminated string", pos: start}
		case l.current == quote:
			l.next()
			return token{kind: tokString, text: b.String(), pos: start}
		case l.current == '\\':
			l.next()
			switch l.current {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\', '"', '\'':
				b.WriteRune(l.current)
			default:
				return token{kind: tokIllegal, text: "invalid escape in string", pos: l.offset}
			}
			l.next()
		default:
			b.WriteRune(l.current)
			l.next()
		}
	}
}
