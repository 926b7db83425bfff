package compiler

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all syntax tree nodes.
type Node interface {
	Pos() Position
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt()
}

type IntLiteral struct {
	At    Position
	Value int64
}

type FloatLiteral struct {
	At    Position
	Value float64
}

type StringLiteral struct {
	At    Position
	Value string
}

type BoolLiteral struct {
	At    Position
	Value bool
}

type NullLiteral struct {
	At Position
}

// Identifier refers to a local variable or a host variable.
type Identifier struct {
	At   Position
	Name string
}

// CurrentNode is the @node accessor.
type CurrentNode struct {
	At Position
}

// LeaseAcquire is the @lease accessor.
type LeaseAcquire struct {
	At Position
}

type Unary struct {
	At      Position
	Op      TokenType
	Operand Expr
}

type Binary struct {
	At    Position
	Op    TokenType
	Left  Expr
	Right Expr
}

// Call invokes a host function by name.
type Call struct {
	At   Position
	Name string
	Args []Expr
}

// Member reads a field of a host value.
type Member struct {
	At       Position
	Receiver Expr
	Name     string
}

// MethodCall invokes a method of a host value.
type MethodCall struct {
	At       Position
	Receiver Expr
	Name     string
	Args     []Expr
}

func (n *IntLiteral) Pos() Position    { return n.At }
func (n *FloatLiteral) Pos() Position  { return n.At }
func (n *StringLiteral) Pos() Position { return n.At }
func (n *BoolLiteral) Pos() Position   { return n.At }
func (n *NullLiteral) Pos() Position   { return n.At }
func (n *Identifier) Pos() Position    { return n.At }
func (n *CurrentNode) Pos() Position   { return n.At }
func (n *LeaseAcquire) Pos() Position  { return n.At }
func (n *Unary) Pos() Position         { return n.At }
func (n *Binary) Pos() Position        { return n.At }
func (n *Call) Pos() Position          { return n.At }
func (n *Member) Pos() Position        { return n.At }
func (n *MethodCall) Pos() Position    { return n.At }

func (*IntLiteral) expr()    {}
func (*FloatLiteral) expr()  {}
func (*StringLiteral) expr() {}
func (*BoolLiteral) expr()   {}
func (*NullLiteral) expr()   {}
func (*Identifier) expr()    {}
func (*CurrentNode) expr()   {}
func (*LeaseAcquire) expr()  {}
func (*Unary) expr()         {}
func (*Binary) expr()        {}
func (*Call) expr()          {}
func (*Member) expr()        {}
func (*MethodCall) expr()    {}

// Declaration introduces a local variable: `int x = 1;` or `var y;`.
type Declaration struct {
	At   Position
	Type string
	Name string
	Init Expr // may be nil
}

// Assignment stores into a local or host variable. Op is TokenAssign or a compound operator.
type Assignment struct {
	At    Position
	Name  string
	Op    TokenType
	Value Expr
}

type If struct {
	At   Position
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

// Block is a braced statement list with its own scope.
type Block struct {
	At    Position
	Stmts []Stmt
}

type ExprStmt struct {
	At Position
	X  Expr
}

func (n *Declaration) Pos() Position { return n.At }
func (n *Assignment) Pos() Position  { return n.At }
func (n *If) Pos() Position          { return n.At }
func (n *Block) Pos() Position       { return n.At }
func (n *ExprStmt) Pos() Position    { return n.At }

func (*Declaration) stmt() {}
func (*Assignment) stmt()  {}
func (*If) stmt()          {}
func (*Block) stmt()       {}
func (*ExprStmt) stmt()    {}

// Flag is a flag name as written in a marker's flag list.
type Flag struct {
	At   Position
	Name string
}

// ScheduledBlock is the statement group between @begin and @end.
type ScheduledBlock struct {
	At         Position
	EntryFlags []Flag
	ExitFlags  []Flag
	Body       []Stmt
}

// RoutineTree is the parsed form of a code routine. Exactly one of Body or Blocks is used:
// a routine without markers is a single implicit block held in Body.
type RoutineTree struct {
	Body   []Stmt
	Blocks []*ScheduledBlock
}

// Scheduled reports whether the routine uses scheduled block markers.
func (r *RoutineTree) Scheduled() bool {
	return len(r.Blocks) > 0
}
