package compiler

import (
	"strconv"
)

// Parser is a recursive descent parser for routine source text.
// It stops at the first error.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	condition bool
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.curToken.Type == TokenError {
		// The lexer keeps going after an error; the parser never looks past one.
		return
	}
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) advance() Token {
	tok := p.curToken
	if tok.Type == TokenError {
		fail(tok.Pos, "%s", tok.Literal)
	}
	p.nextToken()
	return tok
}

func (p *Parser) expect(t TokenType) Token {
	if !p.curTokenIs(t) {
		p.unexpected("expected %s", t)
	}
	return p.advance()
}

func (p *Parser) unexpected(format string, args ...any) {
	tok := p.curToken
	if tok.Type == TokenError {
		fail(tok.Pos, "%s", tok.Literal)
	}
	msg := strconv.Quote(tok.Literal)
	if tok.Type == TokenEOF {
		msg = "end of input"
	}
	args = append(args, msg)
	fail(tok.Pos, format+", got %s", args...)
}

// ParseCondition parses a condition routine: a single expression.
func (p *Parser) ParseCondition() (expr Expr, err error) {
	defer catch(&err)
	p.condition = true
	expr = p.parseExpression()
	if !p.curTokenIs(TokenEOF) {
		p.unexpected("expected end of condition")
	}
	return expr, nil
}

// ParseRoutine parses a code routine. Scheduled block markers may only appear at the top level,
// and once they are used every statement must sit inside a block.
func (p *Parser) ParseRoutine() (tree *RoutineTree, err error) {
	defer catch(&err)
	tree = &RoutineTree{}
	var open *ScheduledBlock
	var firstLoose *Position

	for !p.curTokenIs(TokenEOF) {
		switch p.curToken.Type {
		case TokenAtBegin:
			pos := p.advance().Pos
			if open != nil {
				fail(pos, "scheduled blocks cannot be nested")
			}
			if firstLoose != nil {
				fail(*firstLoose, "statements must be inside scheduled blocks when markers are used")
			}
			open = &ScheduledBlock{At: pos, EntryFlags: p.parseFlagList()}
		case TokenAtEnd:
			pos := p.advance().Pos
			if open == nil {
				fail(pos, "@end without matching @begin")
			}
			open.ExitFlags = p.parseFlagList()
			tree.Blocks = append(tree.Blocks, open)
			open = nil
		default:
			stmt := p.parseStatement()
			if stmt == nil {
				continue
			}
			if open != nil {
				open.Body = append(open.Body, stmt)
				continue
			}
			if len(tree.Blocks) > 0 {
				fail(stmt.Pos(), "statements must be inside scheduled blocks when markers are used")
			}
			if firstLoose == nil {
				pos := stmt.Pos()
				firstLoose = &pos
			}
			tree.Body = append(tree.Body, stmt)
		}
	}
	if open != nil {
		fail(open.At, "scheduled block is never closed with @end")
	}
	return tree, nil
}

// parseFlagList parses an optional parenthesised, comma separated identifier list.
func (p *Parser) parseFlagList() []Flag {
	if !p.curTokenIs(TokenLParen) {
		return nil
	}
	p.advance()
	var flags []Flag
	if p.curTokenIs(TokenRParen) {
		p.advance()
		return flags
	}
	for {
		if !p.curTokenIs(TokenIdentifier) {
			p.unexpected("scheduled block flag list must be a comma separated list of identifiers")
		}
		tok := p.advance()
		flags = append(flags, Flag{At: tok.Pos, Name: tok.Literal})
		if p.curTokenIs(TokenComma) {
			p.advance()
			continue
		}
		p.expect(TokenRParen)
		return flags
	}
}

// parseStatement returns nil for empty statements.
func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenSemicolon:
		p.advance()
		return nil
	case TokenLBrace:
		return p.parseBlock()
	case TokenIf:
		return p.parseIf()
	case TokenAtBegin, TokenAtEnd:
		fail(p.curToken.Pos, "scheduled block markers must appear at the top level of a routine")
	case TokenIdentifier:
		if p.peekTokenIs(TokenIdentifier) {
			return p.parseDeclaration()
		}
		if isAssignOp(p.peekToken.Type) {
			return p.parseAssignment()
		}
	}

	pos := p.curToken.Pos
	x := p.parseExpression()
	switch x.(type) {
	case *Call, *MethodCall:
	default:
		fail(pos, "only calls can be used as statements")
	}
	p.expect(TokenSemicolon)
	return &ExprStmt{At: pos, X: x}
}

func (p *Parser) parseBlock() *Block {
	pos := p.expect(TokenLBrace).Pos
	block := &Block{At: pos}
	for !p.curTokenIs(TokenRBrace) {
		if p.curTokenIs(TokenEOF) {
			fail(pos, "unclosed '{'")
		}
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	p.advance()
	return block
}

func (p *Parser) parseIf() *If {
	pos := p.expect(TokenIf).Pos
	p.expect(TokenLParen)
	cond := p.parseExpression()
	p.expect(TokenRParen)
	stmt := &If{At: pos, Cond: cond, Then: p.parseBody()}
	if p.curTokenIs(TokenElse) {
		p.advance()
		stmt.Else = p.parseBody()
	}
	return stmt
}

// parseBody parses the branch of an if statement; an empty statement becomes an empty block.
func (p *Parser) parseBody() Stmt {
	pos := p.curToken.Pos
	if stmt := p.parseStatement(); stmt != nil {
		return stmt
	}
	return &Block{At: pos}
}

func (p *Parser) parseDeclaration() *Declaration {
	typ := p.advance()
	name := p.advance()
	decl := &Declaration{At: typ.Pos, Type: typ.Literal, Name: name.Literal}
	if p.curTokenIs(TokenAssign) {
		p.advance()
		decl.Init = p.parseExpression()
	}
	p.expect(TokenSemicolon)
	return decl
}

func (p *Parser) parseAssignment() *Assignment {
	name := p.advance()
	op := p.advance()
	value := p.parseExpression()
	p.expect(TokenSemicolon)
	return &Assignment{At: name.Pos, Name: name.Literal, Op: op.Type, Value: value}
}

func isAssignOp(t TokenType) bool {
	switch t {
	case TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign:
		return true
	}
	return false
}

var precedences = map[TokenType]int{
	TokenOr:        1,
	TokenAnd:       2,
	TokenEq:        3,
	TokenNotEq:     3,
	TokenLess:      4,
	TokenLessEq:    4,
	TokenGreater:   4,
	TokenGreaterEq: 4,
	TokenPlus:      5,
	TokenMinus:     5,
	TokenStar:      6,
	TokenSlash:     6,
	TokenPercent:   6,
}

func (p *Parser) parseExpression() Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) Expr {
	left := p.parseUnary()
	for {
		prec, ok := precedences[p.curToken.Type]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		right := p.parseBinary(prec + 1)
		left = &Binary{At: op.Pos, Op: op.Type, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() Expr {
	if p.curTokenIs(TokenBang) || p.curTokenIs(TokenMinus) {
		op := p.advance()
		return &Unary{At: op.Pos, Op: op.Type, Operand: p.parseUnary()}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(x Expr) Expr {
	for p.curTokenIs(TokenDot) {
		p.advance()
		if !p.curTokenIs(TokenIdentifier) {
			p.unexpected("expected member name after '.'")
		}
		name := p.advance()
		if p.curTokenIs(TokenLParen) {
			x = &MethodCall{At: name.Pos, Receiver: x, Name: name.Literal, Args: p.parseArgs()}
		} else {
			x = &Member{At: name.Pos, Receiver: x, Name: name.Literal}
		}
	}
	return x
}

func (p *Parser) parseArgs() []Expr {
	p.expect(TokenLParen)
	var args []Expr
	if p.curTokenIs(TokenRParen) {
		p.advance()
		return args
	}
	for {
		args = append(args, p.parseExpression())
		if p.curTokenIs(TokenComma) {
			p.advance()
			continue
		}
		p.expect(TokenRParen)
		return args
	}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.curToken
	switch tok.Type {
	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			fail(tok.Pos, "integer literal %s out of range", tok.Literal)
		}
		return &IntLiteral{At: tok.Pos, Value: v}
	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			fail(tok.Pos, "invalid float literal %s", tok.Literal)
		}
		return &FloatLiteral{At: tok.Pos, Value: v}
	case TokenString:
		p.advance()
		return &StringLiteral{At: tok.Pos, Value: tok.Literal}
	case TokenTrue, TokenFalse:
		p.advance()
		return &BoolLiteral{At: tok.Pos, Value: tok.Type == TokenTrue}
	case TokenNull:
		p.advance()
		return &NullLiteral{At: tok.Pos}
	case TokenAtNode:
		p.advance()
		return &CurrentNode{At: tok.Pos}
	case TokenAtLease:
		p.advance()
		return &LeaseAcquire{At: tok.Pos}
	case TokenIdentifier:
		p.advance()
		if p.curTokenIs(TokenLParen) {
			return &Call{At: tok.Pos, Name: tok.Literal, Args: p.parseArgs()}
		}
		return &Identifier{At: tok.Pos, Name: tok.Literal}
	case TokenLParen:
		p.advance()
		x := p.parseExpression()
		p.expect(TokenRParen)
		return x
	case TokenAtBegin, TokenAtEnd:
		if p.condition {
			fail(tok.Pos, "scheduled blocks are not allowed in conditions")
		}
		fail(tok.Pos, "scheduled block markers must appear at the top level of a routine")
	}
	p.unexpected("expected expression")
	return nil
}
