package compiler

import (
	"errors"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/routine"
)

// errAborted unwinds a routine whose conversation was stopped or restarted mid-block.
var errAborted = errors.New("routine aborted")

// Unit is the result of compiling one routine.
type Unit struct {
	Kind routine.Kind
	// Routine is nil when the source holds no statements.
	Routine routine.Routine
	// Flags lists the flag names the routine references, in first-seen order.
	Flags []string
	// Blocks is the number of scheduled blocks, counting an implicit block as one.
	Blocks int
}

// Empty reports whether the source compiled to nothing. Empty units map onto the reserved no-op routines.
func (u *Unit) Empty() bool {
	return u.Routine == nil
}

// Compiler turns routine source into executable units.
// Flag indices come from a registry shared by every routine of a graph.
type Compiler struct {
	flags    *FlagRegistry
	bindings Bindings
}

// New creates a compiler. A nil registry gets a private one.
func New(flags *FlagRegistry, bindings Bindings) *Compiler {
	if flags == nil {
		flags = NewFlagRegistry()
	}
	return &Compiler{flags: flags, bindings: bindings}
}

// Flags returns the registry shared by routines compiled with c.
func (c *Compiler) Flags() *FlagRegistry {
	return c.flags
}

// Compile compiles source as a routine of the given kind.
// Errors are *CompileError values carrying the source position.
func (c *Compiler) Compile(source string, kind routine.Kind) (*Unit, error) {
	if kind != routine.KindCode && kind != routine.KindCondition {
		return nil, &CompileError{Line: 1, Column: 1, Message: "unknown routine kind " + kind.String()}
	}
	if NewLexer(source).NextToken().Type == TokenEOF {
		return &Unit{Kind: kind}, nil
	}
	if kind == routine.KindCondition {
		return c.compileCondition(source)
	}
	return c.compileCode(source)
}

func (c *Compiler) compileCondition(source string) (unit *Unit, err error) {
	expr, err := NewParser(source).ParseCondition()
	if err != nil {
		return nil, err
	}
	defer catch(&err)

	g := &generator{c: c, condition: true}
	g.push()
	eval := g.expr(expr)
	pos := expr.Pos()

	run := func(ctx routine.Context) error {
		e := &env{ctx: ctx, seq: ctx.SequenceNumber(), block: -1, vars: c.bindings.Variables}
		v, err := eval(e)
		if err != nil {
			return err
		}
		result, ok := v.(bool)
		if !ok {
			return runtimeError(pos, "condition must evaluate to bool, got %s", typeName(v))
		}
		ctx.SetConditionResult(result)
		return nil
	}
	return &Unit{Kind: routine.KindCondition, Routine: run}, nil
}

// compiledBlock is one scheduled block ready to run.
type compiledBlock struct {
	entry []int
	exit  []int
	slots int
	body  execFn
}

func (c *Compiler) compileCode(source string) (unit *Unit, err error) {
	tree, err := NewParser(source).ParseRoutine()
	if err != nil {
		return nil, err
	}
	if !tree.Scheduled() && len(tree.Body) == 0 {
		return &Unit{Kind: routine.KindCode}, nil
	}
	defer catch(&err)

	g := &generator{c: c}
	var blocks []compiledBlock
	if tree.Scheduled() {
		for _, b := range tree.Blocks {
			cb := compiledBlock{entry: g.flagIndices(b.EntryFlags), exit: g.flagIndices(b.ExitFlags)}
			cb.body, cb.slots = g.blockBody(b.Body)
			blocks = append(blocks, cb)
		}
	} else {
		cb := compiledBlock{}
		cb.body, cb.slots = g.blockBody(tree.Body)
		blocks = append(blocks, cb)
	}

	vars := c.bindings.Variables
	run := func(ctx routine.Context) error {
		seq := ctx.SequenceNumber()
		ctx.SetBlocksInUse(len(blocks))
		for i := range blocks {
			b := &blocks[i]
			if !ctx.AreFlagsSet(b.entry) {
				continue
			}
			if !ctx.IsBlockExecuted(i) {
				e := &env{ctx: ctx, seq: seq, block: i, slots: make([]any, b.slots), vars: vars}
				if err := b.body(e); err != nil {
					if errors.Is(err, errAborted) {
						return nil
					}
					return err
				}
				if ctx.SequenceNumber() != seq {
					return nil
				}
				ctx.SetBlockExecuted(i)
			}
			if !ctx.HaveBlockFlagsFired(i) && ctx.HaveBlockSignalsFired(i) {
				for _, f := range b.exit {
					ctx.SetFlag(f)
					if ctx.SequenceNumber() != seq {
						return nil
					}
				}
				ctx.SetBlockFlagsFired(i)
			}
		}
		return nil
	}
	return &Unit{Kind: routine.KindCode, Routine: run, Flags: g.flagNames, Blocks: len(blocks)}, nil
}

type (
	evalFn func(*env) (any, error)
	execFn func(*env) error
)

// env is the per-invocation state of one block's statements.
type env struct {
	ctx   routine.Context
	seq   uint64
	block int
	slots []any
	vars  VariableStore
}

type local struct {
	slot int
	typ  string
}

type scope struct {
	names  map[string]local
	parent *scope
}

func (s *scope) lookup(name string) (local, bool) {
	for ; s != nil; s = s.parent {
		if l, ok := s.names[name]; ok {
			return l, true
		}
	}
	return local{}, false
}

type generator struct {
	c         *Compiler
	condition bool
	scope     *scope
	slots     int
	flagNames []string
	seenFlags map[string]bool
}

func (g *generator) push() {
	g.scope = &scope{names: make(map[string]local), parent: g.scope}
}

func (g *generator) pop() {
	g.scope = g.scope.parent
}

func (g *generator) flagIndices(flags []Flag) []int {
	out := make([]int, 0, len(flags))
	for _, f := range flags {
		if g.seenFlags == nil {
			g.seenFlags = make(map[string]bool)
		}
		if !g.seenFlags[f.Name] {
			g.seenFlags[f.Name] = true
			g.flagNames = append(g.flagNames, f.Name)
		}
		out = append(out, g.c.flags.Register(f.Name))
	}
	return out
}

// blockBody compiles a statement group with a fresh local frame.
func (g *generator) blockBody(stmts []Stmt) (execFn, int) {
	g.scope = nil
	g.slots = 0
	g.push()
	body := g.stmts(stmts)
	g.pop()
	return body, g.slots
}

// stmts runs statements in order and aborts as soon as the conversation moves on.
func (g *generator) stmts(list []Stmt) execFn {
	fns := make([]execFn, len(list))
	for i, s := range list {
		fns[i] = g.stmt(s)
	}
	return func(e *env) error {
		for _, fn := range fns {
			if err := fn(e); err != nil {
				return err
			}
			if e.ctx.SequenceNumber() != e.seq {
				return errAborted
			}
		}
		return nil
	}
}

func (g *generator) stmt(s Stmt) execFn {
	switch s := s.(type) {
	case *Block:
		g.push()
		body := g.stmts(s.Stmts)
		g.pop()
		return body
	case *Declaration:
		return g.declaration(s)
	case *Assignment:
		return g.assignment(s)
	case *If:
		return g.ifStmt(s)
	case *ExprStmt:
		x := g.expr(s.X)
		return func(e *env) error {
			_, err := x(e)
			return err
		}
	}
	fail(s.Pos(), "unsupported statement")
	return nil
}

var zeroValues = map[string]any{
	"var":    nil,
	"int":    int64(0),
	"float":  float64(0),
	"string": "",
	"bool":   false,
	"node":   nil,
	"lease":  nil,
}

// coerce checks v against a declared local type.
func coerce(typ string, v any) (any, bool) {
	switch typ {
	case "var":
		return v, true
	case "int":
		_, ok := v.(int64)
		return v, ok
	case "float":
		if f, ok := toFloat(v); ok {
			return f, true
		}
		return nil, false
	case "string":
		_, ok := v.(string)
		return v, ok
	case "bool":
		_, ok := v.(bool)
		return v, ok
	case "node":
		if v == nil {
			return nil, true
		}
		_, ok := v.(*domain.Node)
		return v, ok
	case "lease":
		if v == nil {
			return nil, true
		}
		_, ok := v.(routine.Lease)
		return v, ok
	}
	return nil, false
}

func (g *generator) declaration(d *Declaration) execFn {
	zero, known := zeroValues[d.Type]
	if !known {
		fail(d.At, "unknown type %q", d.Type)
	}
	if _, exists := g.scope.lookup(d.Name); exists {
		fail(d.At, "%q is already declared", d.Name)
	}
	var init evalFn
	if d.Init != nil {
		init = g.expr(d.Init)
	}
	slot := g.slots
	g.slots++
	g.scope.names[d.Name] = local{slot: slot, typ: d.Type}

	typ, name, pos := d.Type, d.Name, d.At
	return func(e *env) error {
		if init == nil {
			e.slots[slot] = zero
			return nil
		}
		v, err := init(e)
		if err != nil {
			return err
		}
		cv, ok := coerce(typ, v)
		if !ok {
			return runtimeError(pos, "cannot initialize %s %s with %s", typ, name, typeName(v))
		}
		e.slots[slot] = cv
		return nil
	}
}

var compoundOps = map[TokenType]TokenType{
	TokenPlusAssign:  TokenPlus,
	TokenMinusAssign: TokenMinus,
	TokenStarAssign:  TokenStar,
	TokenSlashAssign: TokenSlash,
}

func (g *generator) assignment(a *Assignment) execFn {
	value := g.expr(a.Value)
	op, compound := compoundOps[a.Op]
	pos, name := a.At, a.Name

	combine := func(cur, v any) (any, error) {
		if !compound {
			return v, nil
		}
		return arithmetic(pos, op, cur, v)
	}

	if l, ok := g.scope.lookup(name); ok {
		return func(e *env) error {
			v, err := value(e)
			if err != nil {
				return err
			}
			if v, err = combine(e.slots[l.slot], v); err != nil {
				return err
			}
			cv, ok := coerce(l.typ, v)
			if !ok {
				return runtimeError(pos, "cannot assign %s to %s %s", typeName(v), l.typ, name)
			}
			e.slots[l.slot] = cv
			return nil
		}
	}

	g.requireVariables(pos, name)
	return func(e *env) error {
		v, err := value(e)
		if err != nil {
			return err
		}
		if compound {
			cur, ok := e.vars.Load(name)
			if !ok {
				return runtimeError(pos, "undefined variable %q", name)
			}
			if v, err = combine(normalize(cur), v); err != nil {
				return err
			}
		}
		if err := e.vars.Store(name, v); err != nil {
			return &RuntimeError{Line: pos.Line, Column: pos.Column, Message: "assign " + name, Err: err}
		}
		return nil
	}
}

func (g *generator) requireVariables(pos Position, name string) {
	if g.c.bindings.Variables == nil {
		fail(pos, "undefined variable %q", name)
	}
}

func (g *generator) ifStmt(s *If) execFn {
	cond := g.expr(s.Cond)
	g.push()
	then := g.stmt(s.Then)
	g.pop()
	var els execFn
	if s.Else != nil {
		g.push()
		els = g.stmt(s.Else)
		g.pop()
	}
	pos := s.Cond.Pos()
	return func(e *env) error {
		v, err := cond(e)
		if err != nil {
			return err
		}
		b, ok := v.(bool)
		if !ok {
			return runtimeError(pos, "if condition must be bool, got %s", typeName(v))
		}
		if b {
			return then(e)
		}
		if els != nil {
			return els(e)
		}
		return nil
	}
}

func (g *generator) exprs(list []Expr) []evalFn {
	out := make([]evalFn, len(list))
	for i, x := range list {
		out[i] = g.expr(x)
	}
	return out
}

func evalArgs(e *env, args []evalFn) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, err := a(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func constant(v any) evalFn {
	return func(*env) (any, error) { return v, nil }
}

func (g *generator) expr(x Expr) evalFn {
	switch x := x.(type) {
	case *IntLiteral:
		return constant(x.Value)
	case *FloatLiteral:
		return constant(x.Value)
	case *StringLiteral:
		return constant(x.Value)
	case *BoolLiteral:
		return constant(x.Value)
	case *NullLiteral:
		return constant(nil)
	case *Identifier:
		return g.identifier(x)
	case *CurrentNode:
		return func(e *env) (any, error) {
			return normalize(e.ctx.CurrentNode(e.seq)), nil
		}
	case *LeaseAcquire:
		if g.condition {
			fail(x.At, "@lease is not allowed in conditions")
		}
		return func(e *env) (any, error) {
			return e.ctx.AcquireLease(e.block, e.seq), nil
		}
	case *Unary:
		return g.unary(x)
	case *Binary:
		return g.binary(x)
	case *Call:
		return g.call(x)
	case *Member:
		recv := g.expr(x.Receiver)
		pos, name := x.At, x.Name
		return func(e *env) (any, error) {
			r, err := recv(e)
			if err != nil {
				return nil, err
			}
			return member(pos, r, name)
		}
	case *MethodCall:
		recv := g.expr(x.Receiver)
		args := g.exprs(x.Args)
		pos, name := x.At, x.Name
		return func(e *env) (any, error) {
			r, err := recv(e)
			if err != nil {
				return nil, err
			}
			vals, err := evalArgs(e, args)
			if err != nil {
				return nil, err
			}
			return invoke(pos, r, name, vals)
		}
	}
	fail(x.Pos(), "unsupported expression")
	return nil
}

func (g *generator) identifier(x *Identifier) evalFn {
	if l, ok := g.scope.lookup(x.Name); ok {
		slot := l.slot
		return func(e *env) (any, error) { return e.slots[slot], nil }
	}
	g.requireVariables(x.At, x.Name)
	pos, name := x.At, x.Name
	return func(e *env) (any, error) {
		v, ok := e.vars.Load(name)
		if !ok {
			return nil, runtimeError(pos, "undefined variable %q", name)
		}
		return normalize(v), nil
	}
}

func (g *generator) unary(x *Unary) evalFn {
	operand := g.expr(x.Operand)
	pos := x.At
	if x.Op == TokenBang {
		return func(e *env) (any, error) {
			v, err := operand(e)
			if err != nil {
				return nil, err
			}
			b, ok := v.(bool)
			if !ok {
				return nil, runtimeError(pos, "operator ! not defined on %s", typeName(v))
			}
			return !b, nil
		}
	}
	return func(e *env) (any, error) {
		v, err := operand(e)
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, runtimeError(pos, "operator - not defined on %s", typeName(v))
	}
}

func (g *generator) binary(x *Binary) evalFn {
	left, right := g.expr(x.Left), g.expr(x.Right)
	pos, op := x.At, x.Op

	if op == TokenAnd || op == TokenOr {
		operand := func(e *env, fn evalFn) (bool, error) {
			v, err := fn(e)
			if err != nil {
				return false, err
			}
			b, ok := v.(bool)
			if !ok {
				return false, runtimeError(pos, "operator %s not defined on %s", op, typeName(v))
			}
			return b, nil
		}
		return func(e *env) (any, error) {
			l, err := operand(e, left)
			if err != nil {
				return nil, err
			}
			if (op == TokenAnd && !l) || (op == TokenOr && l) {
				return l, nil
			}
			return operand(e, right)
		}
	}

	return func(e *env) (any, error) {
		l, err := left(e)
		if err != nil {
			return nil, err
		}
		r, err := right(e)
		if err != nil {
			return nil, err
		}
		switch op {
		case TokenEq:
			return equal(l, r), nil
		case TokenNotEq:
			return !equal(l, r), nil
		case TokenLess, TokenLessEq, TokenGreater, TokenGreaterEq:
			return compare(pos, op, l, r)
		default:
			return arithmetic(pos, op, l, r)
		}
	}
}

func (g *generator) call(x *Call) evalFn {
	fn, ok := g.c.bindings.Functions[x.Name]
	if !ok {
		fail(x.At, "unknown function %q", x.Name)
	}
	args := g.exprs(x.Args)
	pos, name := x.At, x.Name
	return func(e *env) (any, error) {
		vals, err := evalArgs(e, args)
		if err != nil {
			return nil, err
		}
		v, err := fn(e.ctx, vals)
		if err != nil {
			return nil, &RuntimeError{Line: pos.Line, Column: pos.Column, Message: "call " + name, Err: err}
		}
		return normalize(v), nil
	}
}
