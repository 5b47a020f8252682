package ast

// Stmt is a closed set of statement nodes, used both at top level and
// inside function/control-flow bodies.
type Stmt interface{ stmtNode() }

type LetStmt struct {
	Name  string
	Value Expr
	Span  Span
}

// CallStmt is a bare user-function call in statement position. Any return
// value is discarded.
type CallStmt struct {
	Name string
	Args []Expr
	Span Span
}

type ReturnStmt struct {
	Value Expr
	Span  Span
}

type ParticleStmt struct{ Decl ParticleDecl }

type ForceStmt struct{ Decl ForceDecl }

type DetectorStmt struct{ Decl DetectorDecl }

type LoopStmt struct{ Decl LoopDecl }

type WellStmt struct{ Decl WellDecl }

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Span Span
}

type ForStmt struct {
	Var   string
	Start Expr
	End   Expr
	Body  []Stmt
	Span  Span
}

type MatchStmt struct {
	Scrutinee Expr
	Arms      []MatchArm
	Span      Span
}

// MatchArm matches an integer literal, or anything when Wildcard is set.
type MatchArm struct {
	Pattern  int64
	Wildcard bool
	Body     []Stmt
}

func (LetStmt) stmtNode()      {}
func (CallStmt) stmtNode()     {}
func (ReturnStmt) stmtNode()   {}
func (ParticleStmt) stmtNode() {}
func (ForceStmt) stmtNode()    {}
func (DetectorStmt) stmtNode() {}
func (LoopStmt) stmtNode()     {}
func (WellStmt) stmtNode()     {}
func (IfStmt) stmtNode()       {}
func (ForStmt) stmtNode()      {}
func (MatchStmt) stmtNode()    {}
