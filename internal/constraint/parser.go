package constraint

import (
	"fmt"
	"strconv"
)

type parser struct {
	lex *lexer
	tok token
}

// Parse parses constraint source into an AST. Errors are *SyntaxError or
// *UnsupportedError.
func Parse(src string) (Expr, error) {
	p := &parser{lex: newLexer(src)}
	p.advance()
	if p.tok.kind == tokEOF {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected()
	}
	return e, nil
}

// MustParse is Parse for fixed expressions; it panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) advance() {
	p.tok = p.lex.scan()
}

func (p *parser) errorf(msg string, args ...any) error {
	return &SyntaxError{Pos: p.tok.pos, Message: fmt.Sprintf(msg, args...)}
}

// unexpected reports the current token, distinguishing constructs the
// language does not support from plain garbage.
func (p *parser) unexpected() error {
	switch p.tok.kind {
	case tokForeign:
		return &UnsupportedError{Pos: p.tok.pos, Construct: "operator " + p.tok.text}
	case tokIllegal:
		return p.errorf("%s", p.tok.text)
	case tokEOF:
		return p.errorf("unexpected end of expression")
	default:
		return p.errorf("unexpected %q", p.tok.text)
	}
}

func (p *parser) isKeyword(words ...string) bool {
	if p.tok.kind != tokIdent && p.tok.kind != tokOp {
		return false
	}
	for _, w := range words {
		if p.tok.text == w {
			return true
		}
	}
	return false
}

func (p *parser) parseSequence() (Expr, error) {
	pos := p.tok.pos
	first, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokComma {
		return first, nil
	}
	seq := &SequenceExpr{Exprs: []Expr{first}, Position: pos}
	for p.tok.kind == tokComma {
		p.advance()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		seq.Exprs = append(seq.Exprs, e)
	}
	return seq, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or", "||") {
		pos := p.tok.pos
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right, Position: pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and", "&&") {
		pos := p.tok.pos
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right, Position: pos}
	}
	return left, nil
}

var relops = map[string]Operator{
	"==":  OpEq,
	"!=":  OpNe,
	"===": OpStrictEq,
	"!==": OpStrictNe,
	"<":   OpLess,
	">":   OpGreater,
	"<=":  OpLessEq,
	">=":  OpGreaterEq,
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokOp {
		return left, nil
	}
	op, ok := relops[p.tok.text]
	if !ok {
		return left, nil
	}
	pos := p.tok.pos
	p.advance()
	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, Left: left, Right: right, Position: pos}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokString:
		p.advance()
		return &Literal{Value: String(tok.text), Position: tok.pos}, nil

	case tokNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Message: "invalid number " + tok.text}
		}
		return &Literal{Value: Number(n), Position: tok.pos}, nil

	case tokLParen:
		p.advance()
		e, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			if p.tok.kind == tokEOF {
				return nil, p.errorf("unbalanced parentheses")
			}
			return nil, p.unexpected()
		}
		p.advance()
		return e, nil

	case tokIdent:
		switch tok.text {
		case "true", "false":
			p.advance()
			return &Literal{Value: Bool(tok.text == "true"), Position: tok.pos}, nil
		case "and", "or":
			return nil, p.errorf("missing operand before %q", tok.text)
		}
		return p.parsePath()
	}
	return nil, p.unexpected()
}

// parsePath parses ident ("." ident)* with an optional trailing call.
func (p *parser) parsePath() (Expr, error) {
	id := &Identifier{Path: []string{p.tok.text}, Position: p.tok.pos}
	p.advance()
	for p.tok.kind == tokDot {
		p.advance()
		if p.tok.kind != tokIdent {
			return nil, p.errorf("identifier expected after '.'")
		}
		name, pos := p.tok.text, p.tok.pos
		p.advance()
		if p.tok.kind == tokLParen {
			return p.parseCall(id, name, pos)
		}
		id.Path = append(id.Path, name)
	}
	if p.tok.kind == tokLParen {
		return nil, &UnsupportedError{Pos: id.Position, Construct: "function call " + id.String()}
	}
	return id, nil
}

func (p *parser) parseCall(recv *Identifier, method string, pos int) (Expr, error) {
	call := &CallExpr{Receiver: recv, Method: method, Position: pos}
	p.advance()
	if p.tok.kind == tokRParen {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch p.tok.kind {
		case tokComma:
			p.advance()
		case tokRParen:
			p.advance()
			return call, nil
		case tokEOF:
			return nil, p.errorf("unbalanced parentheses")
		default:
			return nil, p.unexpected()
		}
	}
}
