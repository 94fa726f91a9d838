package calc

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

// Kind tags a Token.
type Kind int

const (
	End Kind = iota
	Number
	Name
	Plus
	Minus
	Star
	Slash
	LParen
	RParen
	Comma
)

var punctuation = map[byte]Kind{
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'(': LParen,
	')': RParen,
	',': Comma,
}

func (k Kind) String() string {
	switch k {
	case End:
		return "end of formula"
	case Number:
		return "number"
	case Name:
		return "name"
	}
	for ch, kind := range punctuation {
		if kind == k {
			return "'" + string(ch) + "'"
		}
	}
	return "unknown token"
}

// Token is one lexical unit of a formula. Num is set for Number tokens
// and Text for Name tokens; Pos is the byte offset in the formula body.
type Token struct {
	Kind Kind
	Num  float64
	Text string
	Pos  int
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return formatNumber(t.Num)
	case Name:
		return t.Text
	}
	return t.Kind.String()
}

// Lexer splits formula text into tokens, looking at most one character
// ahead.
type Lexer struct {
	src string
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. Once End has been returned every further
// call returns End again.
func (l *Lexer) Next() (Token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{Kind: End, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.src[l.pos]
	switch {
	case isDigit(ch) || ch == '.':
		end, err := scanNumber(l.src, start)
		if err != nil {
			return Token{}, err
		}
		v, err := parseNumber(l.src[start:end], start)
		if err != nil {
			return Token{}, err
		}
		l.pos = end
		return Token{Kind: Number, Num: v, Pos: start}, nil
	case isLetter(ch):
		l.pos++
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		return Token{Kind: Name, Text: l.src[start:l.pos], Pos: start}, nil
	}
	if kind, ok := punctuation[ch]; ok {
		l.pos++
		return Token{Kind: kind, Pos: start}, nil
	}
	r, _ := utf8.DecodeRuneInString(l.src[start:])
	return Token{}, syntaxErrorf(start, "unrecognized character %q", r)
}

// Tokenize runs the lexer to completion. The result always ends with End.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == End {
			return out, nil
		}
	}
}

// scanNumber finds the end of a decimal or scientific literal starting at
// start: digits, an optional fraction and an optional exponent.
func scanNumber(s string, start int) (int, error) {
	i := start
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, syntaxErrorf(start, "malformed number %q", s[start:i])
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j == exp {
			return 0, syntaxErrorf(start, "malformed number %q", s[start:j])
		}
		i = j
	}
	return i, nil
}

func parseNumber(text string, pos int) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, syntaxErrorf(pos, "number out of range %q", text)
		}
		return 0, syntaxErrorf(pos, "malformed number %q", text)
	}
	return v, nil
}

// formatNumber renders a literal in its shortest round-trip form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
