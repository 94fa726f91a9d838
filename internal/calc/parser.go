package calc

import (
	"strings"

	"formulagrid/internal/grid"
)

// Grammar, all binary operators left-associative:
//
//	formula := expr END
//	expr    := term (('+' | '-') term)*
//	term    := prim (('*' | '/') prim)*
//	prim    := NUMBER
//	         | NAME '(' arglist? ')'
//	         | NAME
//	         | '(' expr ')'
//
// There is no unary minus: "-1" inside a formula is a syntax error, and
// negation is written as a call to the minus function.

// Parse compiles raw cell input. Input that reads entirely as a number
// becomes a literal even without '='. Other input not starting with '='
// returns ErrNotFormula. Formula text failing to parse returns a
// *SyntaxError.
func Parse(text string, funcs Registry) (Expr, error) {
	if v, ok := bareNumber(text); ok {
		return &Literal{Value: v}, nil
	}
	body, ok := strings.CutPrefix(text, "=")
	if !ok {
		return nil, ErrNotFormula
	}
	return ParseFormula(body, funcs)
}

// ParseFormula compiles a formula body, i.e. the text after '='.
func ParseFormula(body string, funcs Registry) (Expr, error) {
	tokens, err := Tokenize(body)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, funcs: funcs}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != End {
		return nil, syntaxErrorf(tok.Pos, "unexpected %s after expression", tok)
	}
	return e, nil
}

// bareNumber accepts an optionally signed numeric literal with optional
// leading whitespace and nothing after it.
func bareNumber(text string) (float64, bool) {
	i := 0
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	start := i
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	if i >= len(text) || !(isDigit(text[i]) || text[i] == '.') {
		return 0, false
	}
	end, err := scanNumber(text, i)
	if err != nil || end != len(text) {
		return 0, false
	}
	v, err := parseNumber(text[start:end], start)
	if err != nil {
		return 0, false
	}
	return v, true
}

type parser struct {
	tokens []Token
	pos    int
	funcs  Registry
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != End {
		p.pos++
	}
	return tok
}

func (p *parser) function(name string, pos int) (*Function, error) {
	f, ok := p.funcs.Lookup(name)
	if !ok {
		return nil, syntaxErrorf(pos, "no function -- %s", name)
	}
	return f, nil
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op string
		switch tok.Kind {
		case Plus:
			op = "+"
		case Minus:
			op = "-"
		default:
			return left, nil
		}
		p.next()
		f, err := p.function(op, tok.Pos)
		if err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Call{Func: f, Args: []Expr{left, right}}
	}
}

func (p *parser) term() (Expr, error) {
	left, err := p.prim()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op string
		switch tok.Kind {
		case Star:
			op = "*"
		case Slash:
			op = "/"
		default:
			return left, nil
		}
		p.next()
		f, err := p.function(op, tok.Pos)
		if err != nil {
			return nil, err
		}
		right, err := p.prim()
		if err != nil {
			return nil, err
		}
		left = &Call{Func: f, Args: []Expr{left, right}}
	}
}

func (p *parser) prim() (Expr, error) {
	tok := p.next()
	switch tok.Kind {
	case Number:
		return &Literal{Value: tok.Num}, nil
	case Name:
		if p.peek().Kind != LParen {
			idx, err := grid.ParseIndex(tok.Text)
			if err != nil {
				return nil, syntaxErrorf(tok.Pos, "invalid cell reference -- %s", tok.Text)
			}
			return &CellRef{Index: idx}, nil
		}
		p.next()
		f, err := p.function(tok.Text, tok.Pos)
		if err != nil {
			return nil, err
		}
		args, err := p.arglist(tok)
		if err != nil {
			return nil, err
		}
		return &Call{Func: f, Args: args}, nil
	case LParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Kind != RParen {
			return nil, syntaxErrorf(closing.Pos, "cannot parse, no matching closing paren, found %s", closing)
		}
		return e, nil
	case End:
		return nil, syntaxErrorf(tok.Pos, "cannot parse formula, unexpected end of formula")
	default:
		return nil, syntaxErrorf(tok.Pos, "cannot parse formula, unexpected %s", tok)
	}
}

// arglist parses the arguments of a call; the opening paren has already
// been consumed.
func (p *parser) arglist(name Token) ([]Expr, error) {
	var args []Expr
	if p.peek().Kind == RParen {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Kind != Comma {
			break
		}
		p.next()
	}
	if closing := p.next(); closing.Kind != RParen {
		return nil, syntaxErrorf(closing.Pos, "cannot parse, no matching closing paren for %s(, found %s", name.Text, closing)
	}
	return args, nil
}
