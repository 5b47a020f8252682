// Package eval computes the numeric value of expressions against a scope.
//
// Values are floats. String values exist only as call arguments that name
// particles; reaching one in arithmetic is an error. User function calls are
// delegated through the Caller interface, since running a function body can
// extend the scene being built.
package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

var (
	ErrUndefined      = errors.New("Undefined variable")
	ErrDivisionByZero = errors.New("Division by zero")
	ErrNegativeSqrt   = errors.New("Square root of negative number")
	ErrStringOperand  = errors.New("String value in numeric context")
	ErrUnknownFunc    = errors.New("Unknown function")
	ErrArity          = errors.New("Wrong argument count")
	ErrNoReturn       = errors.New("did not return a value")
)

// Value is a number or a particle name.
type Value struct {
	Num   float64
	Str   string
	IsStr bool
}

func Num(v float64) Value { return Value{Num: v} }
func Str(s string) Value  { return Value{Str: s, IsStr: true} }

func (v Value) String() string {
	if v.IsStr {
		return v.Str
	}
	return fmt.Sprintf("%g", v.Num)
}

// Caller runs a user-defined function. The second result reports whether the
// body reached a return statement.
type Caller interface {
	Call(name string, args []Value) (Value, bool, error)
}

// Scope resolves variable references. Lookup order is block locals, then
// function parameters, then globals.
type Scope struct {
	Globals map[string]float64
	Params  map[string]Value
	Locals  map[string]float64
}

func NewScope() *Scope {
	return &Scope{Globals: make(map[string]float64)}
}

func (s *Scope) lookup(name string) (Value, bool) {
	if s.Locals != nil {
		if v, ok := s.Locals[name]; ok {
			return Num(v), true
		}
	}
	if s.Params != nil {
		if v, ok := s.Params[name]; ok {
			return v, true
		}
	}
	if s.Globals != nil {
		if v, ok := s.Globals[name]; ok {
			return Num(v), true
		}
	}
	return Value{}, false
}

// SetLocal binds a block-local variable, allocating the local map on first use.
func (s *Scope) SetLocal(name string, v float64) {
	if s.Locals == nil {
		s.Locals = make(map[string]float64)
	}
	s.Locals[name] = v
}

// Eval computes the numeric value of e.
func Eval(e ast.Expr, sc *Scope, caller Caller) (float64, error) {
	switch n := e.(type) {
	case ast.NumberLit:
		return n.Value, nil

	case ast.StringLit:
		return 0, fmt.Errorf("%w: '%s'", ErrStringOperand, n.Value)

	case ast.VarRef:
		v, ok := sc.lookup(n.Name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUndefined, n.Name)
		}
		if v.IsStr {
			return 0, fmt.Errorf("%w: '%s'", ErrStringOperand, v.Str)
		}
		return v.Num, nil

	case ast.Neg:
		x, err := Eval(n.X, sc, caller)
		if err != nil {
			return 0, err
		}
		return -x, nil

	case ast.Binary:
		left, err := Eval(n.Left, sc, caller)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Right, sc, caller)
		if err != nil {
			return 0, err
		}
		return applyBinary(n.Op, left, right)

	case ast.BuiltinCall:
		return evalBuiltin(n, sc, caller)

	case ast.UserCall:
		v, err := EvalValue(e, sc, caller)
		if err != nil {
			return 0, err
		}
		if v.IsStr {
			return 0, fmt.Errorf("%w: '%s'", ErrStringOperand, v.Str)
		}
		return v.Num, nil

	default:
		return 0, fmt.Errorf("unhandled expression %T", e)
	}
}

// EvalValue is Eval extended to string results, for positions where a
// particle name is acceptable.
func EvalValue(e ast.Expr, sc *Scope, caller Caller) (Value, error) {
	switch n := e.(type) {
	case ast.StringLit:
		return Str(n.Value), nil

	case ast.VarRef:
		if v, ok := sc.lookup(n.Name); ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUndefined, n.Name)

	case ast.UserCall:
		if caller == nil {
			return Value{}, fmt.Errorf("%w: %s", ErrUnknownFunc, n.Name)
		}
		args := make([]Value, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := EvalValue(a, sc, caller)
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
		}
		ret, returned, err := caller.Call(n.Name, args)
		if err != nil {
			return Value{}, err
		}
		if !returned {
			return Value{}, fmt.Errorf("Function '%s' %w", n.Name, ErrNoReturn)
		}
		return ret, nil

	default:
		v, err := Eval(e, sc, caller)
		if err != nil {
			return Value{}, err
		}
		return Num(v), nil
	}
}

func applyBinary(op ast.BinOp, left, right float64) (float64, error) {
	switch op {
	case ast.OpAdd:
		return left + right, nil
	case ast.OpSub:
		return left - right, nil
	case ast.OpMul:
		return left * right, nil
	case ast.OpDiv:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case ast.OpLess:
		return bool01(left < right), nil
	case ast.OpGreater:
		return bool01(left > right), nil
	case ast.OpLessEq:
		return bool01(left <= right), nil
	case ast.OpGreaterEq:
		return bool01(left >= right), nil
	case ast.OpEq:
		return bool01(left == right), nil
	case ast.OpNotEq:
		return bool01(left != right), nil
	default:
		return 0, fmt.Errorf("unhandled operator %v", op)
	}
}

// bool01 maps comparison results onto the language's truth values.
func bool01(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func evalBuiltin(call ast.BuiltinCall, sc *Scope, caller Caller) (float64, error) {
	if want := call.Fn.Arity(); len(call.Args) != want {
		return 0, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, call.Fn, want, len(call.Args))
	}
	args := make([]float64, len(call.Args))
	for i, a := range call.Args {
		v, err := Eval(a, sc, caller)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	switch call.Fn {
	case ast.BuiltinSin:
		return math.Sin(args[0]), nil
	case ast.BuiltinCos:
		return math.Cos(args[0]), nil
	case ast.BuiltinSqrt:
		if args[0] < 0 {
			return 0, fmt.Errorf("%w: %g", ErrNegativeSqrt, args[0])
		}
		return math.Sqrt(args[0]), nil
	case ast.BuiltinClamp:
		return math.Min(math.Max(args[0], args[1]), args[2]), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFunc, call.Fn)
	}
}
