package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes routine source text.
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // offset after ch
	ch      rune // current character, 0 at EOF (see atEOF)
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.col++
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// atEOF reports whether the input is exhausted. A NUL byte in the input is not EOF.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// Tokenize returns every token up to and including EOF, stopping early on the first error token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if errTok, ok := l.skipWhitespaceAndComments(); !ok {
		return errTok
	}

	pos := l.position()
	single := func(t TokenType) Token {
		lit := string(l.ch)
		l.readChar()
		return Token{Type: t, Literal: lit, Pos: pos}
	}
	double := func(next rune, two, one TokenType) Token {
		first := l.ch
		l.readChar()
		if l.ch == next {
			l.readChar()
			return Token{Type: two, Literal: string([]rune{first, next}), Pos: pos}
		}
		return Token{Type: one, Literal: string(first), Pos: pos}
	}

	switch {
	case l.atEOF():
		return Token{Type: TokenEOF, Pos: pos}
	case l.ch == 0:
		return l.errorToken(pos, "unexpected NUL character")
	case l.ch == '(':
		return single(TokenLParen)
	case l.ch == ')':
		return single(TokenRParen)
	case l.ch == '{':
		return single(TokenLBrace)
	case l.ch == '}':
		return single(TokenRBrace)
	case l.ch == ',':
		return single(TokenComma)
	case l.ch == ';':
		return single(TokenSemicolon)
	case l.ch == '%':
		return single(TokenPercent)
	case l.ch == '.' && !isDigit(l.peekChar()):
		return single(TokenDot)
	case l.ch == '+':
		return double('=', TokenPlusAssign, TokenPlus)
	case l.ch == '-':
		return double('=', TokenMinusAssign, TokenMinus)
	case l.ch == '*':
		return double('=', TokenStarAssign, TokenStar)
	case l.ch == '/':
		return double('=', TokenSlashAssign, TokenSlash)
	case l.ch == '=':
		return double('=', TokenEq, TokenAssign)
	case l.ch == '!':
		return double('=', TokenNotEq, TokenBang)
	case l.ch == '<':
		return double('=', TokenLessEq, TokenLess)
	case l.ch == '>':
		return double('=', TokenGreaterEq, TokenGreater)
	case l.ch == '&':
		if l.peekChar() != '&' {
			return l.errorToken(pos, "unexpected character '&'")
		}
		return double('&', TokenAnd, TokenError)
	case l.ch == '|':
		if l.peekChar() != '|' {
			return l.errorToken(pos, "unexpected character '|'")
		}
		return double('|', TokenOr, TokenError)
	case l.ch == '"':
		return l.readString(pos)
	case l.ch == '@':
		return l.readSpecialName(pos)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber(pos)
	case isLetter(l.ch):
		ident := l.readIdentifier()
		return Token{Type: LookupIdent(ident), Literal: ident, Pos: pos}
	default:
		return l.errorToken(pos, "unexpected character '"+string(l.ch)+"'")
	}
}

func (l *Lexer) errorToken(pos Position, msg string) Token {
	l.readChar()
	return Token{Type: TokenError, Literal: msg, Pos: pos}
}

// skipWhitespaceAndComments returns false with an error token on an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			pos := l.position()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEOF() {
					return Token{Type: TokenError, Literal: "unterminated comment", Pos: pos}, false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return Token{}, true
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	isFloat := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if isLetter(l.ch) {
		return l.errorToken(pos, "malformed number")
	}
	if isFloat {
		return Token{Type: TokenFloat, Literal: l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInt, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readString(pos Position) Token {
	var sb strings.Builder
	l.readChar() // opening quote
	for {
		if l.atEOF() {
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		}
		switch l.ch {
		case '\n':
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		case 0:
			return l.errorToken(pos, "unexpected NUL character")
		case '"':
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				return l.errorToken(pos, "invalid escape sequence")
			}
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readSpecialName(pos Position) Token {
	l.readChar() // @
	if !isLetter(l.ch) {
		return Token{Type: TokenError, Literal: "expected name after '@'", Pos: pos}
	}
	name := l.readIdentifier()
	tok, ok := specialNames[name]
	if !ok {
		return Token{Type: TokenError, Literal: "unknown special name @" + name, Pos: pos}
	}
	return Token{Type: tok, Literal: "@" + name, Pos: pos}
}

func isLetter(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
