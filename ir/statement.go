package ir

// Statement is a closed union of statement variants. Use a type switch for
// partial dispatch and a StatementVisitor where every variant matters.
type Statement interface {
	Accept(v StatementVisitor)
	// SourceInfo returns the source locator, e.g. "Core.scala 12:3".
	SourceInfo() string
	statement()
}

// StatementVisitor has one method per statement variant.
type StatementVisitor interface {
	VisitWire(*Wire)
	VisitRegister(*Register)
	VisitInstance(*Instance)
	VisitMemory(*Memory)
	VisitNode(*Node)
	VisitConnect(*Connect)
	VisitConditional(*Conditional)
	VisitBlock(*Block)
}

// Wire declares a combinational signal.
type Wire struct {
	Name string
	Type Type
	Info string
}

// Register declares a clocked register. Reset and Init are nil for a
// register without reset.
type Register struct {
	Name  string
	Type  Type
	Clock Expression
	Reset Expression
	Init  Expression
	Info  string
}

// Instance instantiates Module under Name.
type Instance struct {
	Name   string
	Module string
	Info   string
}

// Memory declares a memory with named read and write ports.
type Memory struct {
	Name    string
	Type    Type
	Depth   int
	Readers []string
	Writers []string
	Info    string
}

// Node binds Name to the value of an expression. It is the only statement
// that can carry a cover point.
type Node struct {
	Name  string
	Value Expression
	Info  string
}

// Connect drives Loc with Value.
type Connect struct {
	Loc   Expression
	Value Expression
	Info  string
}

// Conditional executes Then when Pred is 1 and Else otherwise. Else may be
// nil.
type Conditional struct {
	Pred Expression
	Then *Block
	Else *Block
	Info string
}

// Block is an ordered sequence of statements.
type Block struct {
	Stmts []Statement
	Info  string
}

func (s *Wire) Accept(v StatementVisitor)        { v.VisitWire(s) }
func (s *Register) Accept(v StatementVisitor)    { v.VisitRegister(s) }
func (s *Instance) Accept(v StatementVisitor)    { v.VisitInstance(s) }
func (s *Memory) Accept(v StatementVisitor)      { v.VisitMemory(s) }
func (s *Node) Accept(v StatementVisitor)        { v.VisitNode(s) }
func (s *Connect) Accept(v StatementVisitor)     { v.VisitConnect(s) }
func (s *Conditional) Accept(v StatementVisitor) { v.VisitConditional(s) }
func (s *Block) Accept(v StatementVisitor)       { v.VisitBlock(s) }

func (s *Wire) SourceInfo() string        { return s.Info }
func (s *Register) SourceInfo() string    { return s.Info }
func (s *Instance) SourceInfo() string    { return s.Info }
func (s *Memory) SourceInfo() string      { return s.Info }
func (s *Node) SourceInfo() string        { return s.Info }
func (s *Connect) SourceInfo() string     { return s.Info }
func (s *Conditional) SourceInfo() string { return s.Info }
func (s *Block) SourceInfo() string       { return s.Info }

func (*Wire) statement()        {}
func (*Register) statement()    {}
func (*Instance) statement()    {}
func (*Memory) statement()      {}
func (*Node) statement()        {}
func (*Connect) statement()     {}
func (*Conditional) statement() {}
func (*Block) statement()       {}

// NewBlock returns a block holding stmts.
func NewBlock(stmts ...Statement) *Block {
	return &Block{Stmts: stmts}
}

// Append adds statements to the end of the block.
func (b *Block) Append(stmts ...Statement) {
	b.Stmts = append(b.Stmts, stmts...)
}

// DeclaredName returns the name a statement declares, if any.
func DeclaredName(s Statement) (string, bool) {
	switch s := s.(type) {
	case *Wire:
		return s.Name, true
	case *Register:
		return s.Name, true
	case *Instance:
		return s.Name, true
	case *Memory:
		return s.Name, true
	case *Node:
		return s.Name, true
	default:
		return "", false
	}
}

// StatementKind returns a short lowercase name for the statement variant.
func StatementKind(s Statement) string {
	switch s.(type) {
	case *Wire:
		return "wire"
	case *Register:
		return "register"
	case *Instance:
		return "instance"
	case *Memory:
		return "memory"
	case *Node:
		return "node"
	case *Connect:
		return "connect"
	case *Conditional:
		return "conditional"
	case *Block:
		return "block"
	default:
		return "unknown"
	}
}

// Walk visits every statement in b in pre-order. When fn returns false the
// children of that statement are skipped.
func Walk(b *Block, fn func(Statement) bool) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		if !fn(s) {
			continue
		}
		switch s := s.(type) {
		case *Conditional:
			Walk(s.Then, fn)
			Walk(s.Else, fn)
		case *Block:
			Walk(s, fn)
		}
	}
}

// MapBlock replaces statements of b in place. Nested blocks are rewritten
// first; fn then receives every statement of the current block and
// returns its replacement (nil drops it).
func MapBlock(b *Block, fn func(Statement) []Statement) {
	if b == nil {
		return
	}
	out := make([]Statement, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *Conditional:
			MapBlock(s.Then, fn)
			MapBlock(s.Else, fn)
		case *Block:
			MapBlock(s, fn)
		}
		out = append(out, fn(s)...)
	}
	b.Stmts = out
}

// Keep is a MapBlock callback helper returning s unchanged.
func Keep(s Statement) []Statement {
	return []Statement{s}
}
