package ast

// Expr is a closed set of expression nodes; consumers dispatch with
// exhaustive type switches.
type Expr interface{ exprNode() }

type NumberLit struct{ Value float64 }

type StringLit struct{ Value string }

type VarRef struct{ Name string }

type Neg struct{ X Expr }

type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

type BuiltinCall struct {
	Fn   Builtin
	Args []Expr
}

type UserCall struct {
	Name string
	Args []Expr
}

func (NumberLit) exprNode()   {}
func (StringLit) exprNode()   {}
func (VarRef) exprNode()      {}
func (Neg) exprNode()         {}
func (Binary) exprNode()      {}
func (BuiltinCall) exprNode() {}
func (UserCall) exprNode()    {}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEq
	OpNotEq
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpLessEq:
		return "<="
	case OpGreaterEq:
		return ">="
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	}
	return "?"
}

// IsComparison reports whether the operator yields a 1.0/0.0 truth value.
func (op BinOp) IsComparison() bool {
	return op >= OpLess
}

type Builtin int

const (
	BuiltinSin Builtin = iota
	BuiltinCos
	BuiltinSqrt
	BuiltinClamp
)

func (b Builtin) String() string {
	switch b {
	case BuiltinSin:
		return "sin"
	case BuiltinCos:
		return "cos"
	case BuiltinSqrt:
		return "sqrt"
	case BuiltinClamp:
		return "clamp"
	}
	return "?"
}

// Arity returns the exact argument count the builtin requires.
func (b Builtin) Arity() int {
	if b == BuiltinClamp {
		return 3
	}
	return 1
}

// LookupBuiltin maps a call name to its builtin, if it is one.
func LookupBuiltin(name string) (Builtin, bool) {
	switch name {
	case "sin":
		return BuiltinSin, true
	case "cos":
		return BuiltinCos, true
	case "sqrt":
		return BuiltinSqrt, true
	case "clamp":
		return BuiltinClamp, true
	}
	return 0, false
}
