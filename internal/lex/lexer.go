package lex

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context carries the small amount of configuration the lexer consults while
// scanning. It mirrors the subset of engine Options that affect tokenization.
type Context struct {
	// Strict carries the engine's strict-mode setting. The lexer does not
	// consult it: scanning is the same whether it is set or not, and
	// coercion strictness lives in the evaluator.
	Strict bool

	// AllowUnicode permits identifier-like runs to include Unicode letters
	// beyond ASCII, case-folded with golang.org/x/text/cases instead of the
	// ASCII-only ToUpper/ToLower used for keyword matching otherwise.
	AllowUnicode bool

	// MaxTokenLength bounds the lexeme length of any single token (NUMBER,
	// IDENTIFIER, or VARIABLE). Zero means unbounded.
	MaxTokenLength int
}

// Lexer scans a fixed input buffer into a sequence of tokens, one character
// at a time, deterministically and without suspension. A Lexer is single-use:
// construct one per input with New.
type Lexer struct {
	src    []rune
	pos    int
	curPos Position
	ctx    Context
	caser  cases.Caser
}

// New returns a Lexer ready to scan src under the given Context.
func New(src string, ctx Context) *Lexer {
	return &Lexer{
		src:    []rune(src),
		pos:    0,
		curPos: StartPosition(),
		ctx:    ctx,
		caser:  cases.Fold(),
	}
}

func (lx *Lexer) peekRune() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *Lexer) peekRuneAt(offset int) (rune, bool) {
	idx := lx.pos + offset
	if idx >= len(lx.src) {
		return 0, false
	}
	return lx.src[idx], true
}

func (lx *Lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	lx.curPos = lx.curPos.Advance(r)
	return r
}

func (lx *Lexer) foldKeyword(s string) string {
	if lx.ctx.AllowUnicode {
		return lx.caser.String(s)
	}
	return strings.ToLower(s)
}

// Tokens scans the entire input and returns the full token sequence,
// including the trailing DOLLAR sentinel. An error aborts scanning at the
// offending position; no partial token list is returned on error.
func (lx *Lexer) Tokens() ([]Token, error) {
	var toks []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == DOLLAR {
			return toks, nil
		}
	}
}

// Next scans and returns the next token, advancing the lexer past it. Once
// the input is exhausted, Next returns a DOLLAR token on every subsequent
// call.
func (lx *Lexer) Next() (Token, error) {
	lx.skipWhitespace()

	start := lx.curPos
	r, ok := lx.peekRune()
	if !ok {
		return Token{Kind: DOLLAR, Text: "", Position: start}, nil
	}

	switch {
	case unicode.IsDigit(r):
		return lx.lexNumber(start)
	case r == '{':
		return lx.lexVariable(start)
	case isIdentStart(r, lx.ctx.AllowUnicode):
		return lx.lexIdentifierLike(start)
	}

	if tok, ok, err := lx.lexTwoCharOperator(start); err != nil || ok {
		return tok, err
	}

	if kind, ok := singleCharKinds[r]; ok {
		lx.advance()
		return Token{Kind: kind, Text: string(r), Position: start}, nil
	}

	return Token{}, &LexError{Kind: "UnexpectedCharacter", Position: start, Detail: string(r)}
}

func (lx *Lexer) skipWhitespace() {
	for {
		r, ok := lx.peekRune()
		if !ok || !unicode.IsSpace(r) {
			return
		}
		lx.advance()
	}
}

func (lx *Lexer) lexNumber(start Position) (Token, error) {
	var sb strings.Builder
	seenDot := false
	for {
		r, ok := lx.peekRune()
		if !ok {
			break
		}
		if unicode.IsDigit(r) {
			sb.WriteRune(lx.advance())
			continue
		}
		if r == '.' && !seenDot {
			// Only consume the dot if it's followed by more digits or if it
			// is part of a bare "N." — either way a single dot is allowed
			// per the token; a second dot ends the number.
			seenDot = true
			sb.WriteRune(lx.advance())
			continue
		}
		break
	}

	text := sb.String()
	if err := lx.checkLength(text, start); err != nil {
		return Token{}, err
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || isNonFinite(v) {
		return Token{}, &LexError{Kind: "SyntaxError", Position: start, Detail: "not a finite number: " + text}
	}

	return Token{Kind: NUMBER, Text: text, Position: start}, nil
}

func isNonFinite(v float64) bool {
	return v != v || v > 1.7976931348623157e+308 || v < -1.7976931348623157e+308
}

func (lx *Lexer) lexVariable(start Position) (Token, error) {
	lx.advance() // consume '{'
	var sb strings.Builder
	for {
		r, ok := lx.peekRune()
		if !ok {
			return Token{}, &LexError{Kind: "UnclosedVariable", Position: start, Detail: sb.String()}
		}
		if r == '}' {
			lx.advance()
			break
		}
		sb.WriteRune(lx.advance())
	}

	text := sb.String()
	if err := lx.checkLength(text, start); err != nil {
		return Token{}, err
	}

	return Token{Kind: VARIABLE, Text: text, Position: start}, nil
}

func (lx *Lexer) lexIdentifierLike(start Position) (Token, error) {
	var sb strings.Builder
	first := true
	for {
		r, ok := lx.peekRune()
		if !ok {
			break
		}
		if first {
			if !isIdentStart(r, lx.ctx.AllowUnicode) {
				break
			}
		} else if !isIdentCont(r, lx.ctx.AllowUnicode) {
			break
		}
		first = false
		sb.WriteRune(lx.advance())
	}

	text := sb.String()
	if err := lx.checkLength(text, start); err != nil {
		return Token{}, err
	}

	folded := lx.foldKeyword(text)
	if kind, ok := keywords[folded]; ok {
		return Token{Kind: kind, Text: text, Position: start}, nil
	}

	return Token{Kind: IDENTIFIER, Text: text, Position: start}, nil
}

func isIdentStart(r rune, allowUnicode bool) bool {
	if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		return true
	}
	return allowUnicode && unicode.IsLetter(r)
}

func isIdentCont(r rune, allowUnicode bool) bool {
	if isIdentStart(r, allowUnicode) || unicode.IsDigit(r) {
		return true
	}
	return allowUnicode && unicode.IsMark(r)
}

// twoCharOps maps a two-rune prefix to the Kind it forms; checked before
// falling back to the corresponding single-char operator.
var twoCharOps = map[[2]rune]Kind{
	{'=', '='}: EQUAL,
	{'!', '='}: NOT_EQUAL,
	{'<', '='}: LESS_EQUAL,
	{'>', '='}: GREATER_EQUAL,
	{'&', '&'}: AND,
	{'|', '|'}: OR,
}

var singleCharKinds = map[rune]Kind{
	'+': PLUS,
	'-': MINUS,
	'*': MULTIPLY,
	'/': DIVIDE,
	'%': MODULO,
	'^': POWER,
	'<': LESS,
	'>': GREATER,
	'!': NOT,
	'(': LEFT_PAREN,
	')': RIGHT_PAREN,
	',': COMMA,
}

func (lx *Lexer) lexTwoCharOperator(start Position) (Token, bool, error) {
	r1, ok1 := lx.peekRuneAt(0)
	r2, ok2 := lx.peekRuneAt(1)
	if !ok1 || !ok2 {
		return Token{}, false, nil
	}
	kind, ok := twoCharOps[[2]rune{r1, r2}]
	if !ok {
		return Token{}, false, nil
	}
	lx.advance()
	lx.advance()
	return Token{Kind: kind, Text: string([]rune{r1, r2}), Position: start}, true, nil
}

func (lx *Lexer) checkLength(text string, start Position) error {
	if lx.ctx.MaxTokenLength > 0 && len([]rune(text)) > lx.ctx.MaxTokenLength {
		return &LexError{Kind: "LimitExceeded", Position: start, Detail: "token exceeds maximum length"}
	}
	return nil
}

// LexError is the error type produced by the lexer. It is translated into a
// diag.Error with the matching Kind by the caller, keeping this package free
// of a dependency on the diag package's higher-level Code mapping.
type LexError struct {
	Kind     string
	Position Position
	Detail   string
}

func (e *LexError) Error() string {
	return e.Kind + " at " + e.Position.String() + ": " + e.Detail
}
