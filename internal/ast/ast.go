package ast

// Span is a half-open byte range into the original source text.
type Span struct {
	Start int
	End   int
}

// Program is the root node. The parser fills the declaration lists and
// Statements; elaboration appends generated entities to the same lists and
// never edits or removes existing ones.
type Program struct {
	Lets       []LetBinding
	Functions  []FuncDecl
	Statements []Stmt
	Particles  []ParticleDecl
	Forces     []ForceDecl
	Simulate   *SimulateDecl
	Detectors  []DetectorDecl
	Loops      []LoopDecl
	Wells      []WellDecl
}

type LetBinding struct {
	Name  string
	Value Expr
	Span  Span
}

type FuncDecl struct {
	Name   string
	Params []string
	Body   []Stmt
	Span   Span
}

type ParticleDecl struct {
	Name string
	X, Y Expr
	Mass Expr
	Span Span
}

type ForceDecl struct {
	A, B string
	Kind ForceKind
	Span Span
}

// ForceKind is either Gravity or Spring.
type ForceKind interface{ forceKind() }

type Gravity struct{ G Expr }

type Spring struct{ K, Rest Expr }

func (Gravity) forceKind() {}
func (Spring) forceKind()  {}

type SimulateDecl struct {
	Dt    Expr
	Steps Expr
	Span  Span
}

type DetectorDecl struct {
	Name string
	Kind DetectorKind
	Span Span
}

// DetectorKind is either Position (x-coordinate of one particle) or
// Distance (between two particles).
type DetectorKind interface{ detectorKind() }

type Position struct{ Particle string }

type Distance struct{ A, B string }

func (Position) detectorKind() {}
func (Distance) detectorKind() {}

type LoopDecl struct {
	Label string
	Kind  LoopKind
	Body  []Push
	Span  Span
}

// LoopKind is either ForCycles or WhileCond.
type LoopKind interface{ loopKind() }

type ForCycles struct {
	Cycles    Expr
	Frequency Expr
	Damping   Expr
	Target    string
}

type WhileCond struct {
	Cond      Condition
	Frequency Expr
	Damping   Expr
	Target    string
}

func (ForCycles) loopKind() {}
func (WhileCond) loopKind() {}

// Push is the only loop body action: an instantaneous velocity impulse.
type Push struct {
	Target     string
	Magnitude  Expr
	DirX, DirY Expr
}

type WellDecl struct {
	Name      string
	Target    string
	Obs       Observable
	Threshold Expr
	Depth     Expr
	Span      Span
}

// Observable is the quantity a well or while-condition monitors.
type Observable interface{ observableNode() }

type ObserveX struct{ Particle string }

type ObserveY struct{ Particle string }

type ObserveDistance struct{ A, B string }

func (ObserveX) observableNode()        {}
func (ObserveY) observableNode()        {}
func (ObserveDistance) observableNode() {}

// Condition compares a monitored observable against a threshold.
type Condition struct {
	Op        CmpOp
	Obs       Observable
	Threshold Expr
}

// CmpOp is a condition comparison, strictly less or strictly greater.
type CmpOp int

const (
	CmpLess CmpOp = iota
	CmpGreater
)
