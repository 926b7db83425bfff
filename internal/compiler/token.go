package compiler

import "fmt"

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInt        // 42
	TokenFloat      // 1.5
	TokenString     // "hello"
	TokenIdentifier // foo

	// Special names
	TokenAtNode  // @node
	TokenAtLease // @lease
	TokenAtBegin // @begin
	TokenAtEnd   // @end

	// Keywords
	TokenIf
	TokenElse
	TokenTrue
	TokenFalse
	TokenNull

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenComma     // ,
	TokenSemicolon // ;
	TokenDot       // .

	// Operators
	TokenAssign      // =
	TokenPlusAssign  // +=
	TokenMinusAssign // -=
	TokenStarAssign  // *=
	TokenSlashAssign // /=
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenPercent     // %
	TokenBang        // !
	TokenEq          // ==
	TokenNotEq       // !=
	TokenLess        // <
	TokenLessEq      // <=
	TokenGreater     // >
	TokenGreaterEq   // >=
	TokenAnd         // &&
	TokenOr          // ||
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenError:       "ERROR",
	TokenInt:         "INT",
	TokenFloat:       "FLOAT",
	TokenString:      "STRING",
	TokenIdentifier:  "IDENTIFIER",
	TokenAtNode:      "@node",
	TokenAtLease:     "@lease",
	TokenAtBegin:     "@begin",
	TokenAtEnd:       "@end",
	TokenIf:          "if",
	TokenElse:        "else",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenNull:        "null",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenComma:       ",",
	TokenSemicolon:   ";",
	TokenDot:         ".",
	TokenAssign:      "=",
	TokenPlusAssign:  "+=",
	TokenMinusAssign: "-=",
	TokenStarAssign:  "*=",
	TokenSlashAssign: "/=",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenPercent:     "%",
	TokenBang:        "!",
	TokenEq:          "==",
	TokenNotEq:       "!=",
	TokenLess:        "<",
	TokenLessEq:      "<=",
	TokenGreater:     ">",
	TokenGreaterEq:   ">=",
	TokenAnd:         "&&",
	TokenOr:          "||",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

var keywords = map[string]TokenType{
	"if":    TokenIf,
	"else":  TokenElse,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
}

var specialNames = map[string]TokenType{
	"node":  TokenAtNode,
	"lease": TokenAtLease,
	"begin": TokenAtBegin,
	"end":   TokenAtEnd,
}

// LookupIdent maps an identifier to its keyword token type, if any.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}
