package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

// parseExpr parses an arithmetic or comparison expression. Operators are
// found by scanning for the rightmost occurrence at paren depth zero, so
// chains associate left.
func parseExpr(s string, span ast.Span) (ast.Expr, error) {
	return parseComparison(strings.TrimSpace(s), span)
}

var twoCharOps = map[string]ast.BinOp{
	"==": ast.OpEq,
	"!=": ast.OpNotEq,
	"<=": ast.OpLessEq,
	">=": ast.OpGreaterEq,
}

func parseComparison(s string, span ast.Span) (ast.Expr, error) {
	pos, opLen := -1, 0
	var op ast.BinOp
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 {
			continue
		}
		if i+2 <= len(s) {
			if found, ok := twoCharOps[s[i:i+2]]; ok {
				pos, op, opLen = i, found, 2
				continue
			}
		}
		switch s[i] {
		case '<':
			pos, op, opLen = i, ast.OpLess, 1
		case '>':
			pos, op, opLen = i, ast.OpGreater, 1
		}
	}
	if pos < 0 {
		return parseAdd(s, span)
	}
	left, err := parseComparison(strings.TrimSpace(s[:pos]), span)
	if err != nil {
		return nil, err
	}
	right, err := parseAdd(strings.TrimSpace(s[pos+opLen:]), span)
	if err != nil {
		return nil, err
	}
	return ast.Binary{Op: op, Left: left, Right: right}, nil
}

func parseAdd(s string, span ast.Span) (ast.Expr, error) {
	pos := -1
	var op ast.BinOp
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '+', '-':
			if depth == 0 && isBinaryAt(s, i) {
				pos = i
				if s[i] == '+' {
					op = ast.OpAdd
				} else {
					op = ast.OpSub
				}
			}
		}
	}
	if pos < 0 {
		return parseMul(s, span)
	}
	left, err := parseAdd(strings.TrimSpace(s[:pos]), span)
	if err != nil {
		return nil, err
	}
	right, err := parseMul(strings.TrimSpace(s[pos+1:]), span)
	if err != nil {
		return nil, err
	}
	return ast.Binary{Op: op, Left: left, Right: right}, nil
}

// isBinaryAt reports whether the +/- at i is a binary operator rather than a
// sign. A sign follows nothing, or follows another operator or open paren.
func isBinaryAt(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if s[j] == ' ' {
			continue
		}
		return !strings.ContainsRune("(,+-*/=<>!", rune(s[j]))
	}
	return false
}

func parseMul(s string, span ast.Span) (ast.Expr, error) {
	pos := -1
	var op ast.BinOp
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '*':
			if depth == 0 {
				pos, op = i, ast.OpMul
			}
		case '/':
			if depth == 0 {
				pos, op = i, ast.OpDiv
			}
		}
	}
	if pos < 0 {
		return parseUnary(s, span)
	}
	left, err := parseMul(strings.TrimSpace(s[:pos]), span)
	if err != nil {
		return nil, err
	}
	right, err := parseUnary(strings.TrimSpace(s[pos+1:]), span)
	if err != nil {
		return nil, err
	}
	return ast.Binary{Op: op, Left: left, Right: right}, nil
}

func parseUnary(s string, span ast.Span) (ast.Expr, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		inner, err := parseUnary(s[1:], span)
		if err != nil {
			return nil, err
		}
		return ast.Neg{X: inner}, nil
	}
	return parsePrimary(s, span)
}

// parsePrimary parses a literal, variable, call, or parenthesized expression.
// Call syntax is lenient: text after the matching close paren is ignored, and
// an unmatched open paren falls through to the later forms.
func parsePrimary(s string, span ast.Span) (ast.Expr, error) {
	s = strings.TrimSpace(s)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return ast.NumberLit{Value: v}, nil
	}

	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return ast.StringLit{Value: stripQuotes(s)}, nil
		}
	}

	if open := strings.IndexByte(s, '('); open >= 0 {
		name := strings.TrimSpace(s[:open])
		if isIdent(name) {
			if end := matchParen(s, open); end >= 0 {
				args, err := parseArgs(s[open+1:end], span)
				if err != nil {
					return nil, err
				}
				if fn, ok := ast.LookupBuiltin(name); ok {
					return ast.BuiltinCall{Fn: fn, Args: args}, nil
				}
				return ast.UserCall{Name: name, Args: args}, nil
			}
		}
	}

	if isIdent(s) {
		return ast.VarRef{Name: s}, nil
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return parseExpr(s[1:len(s)-1], span)
	}

	return nil, errAt(span, "Invalid expression: %s", s)
}

// matchParen returns the index of the close paren matching the open paren at
// open, or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseArgs splits a call's argument list on depth-zero commas, skipping
// empty entries, and parses each piece.
func parseArgs(s string, span ast.Span) ([]ast.Expr, error) {
	var args []ast.Expr
	depth := 0
	start := 0
	flush := func(end int) error {
		piece := strings.TrimSpace(s[start:end])
		if piece == "" {
			return nil
		}
		arg, err := parseExpr(piece, span)
		if err != nil {
			return err
		}
		args = append(args, arg)
		return nil
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	return args, nil
}

// isIdent reports whether s is a valid identifier: a letter or underscore
// followed by letters, digits, or underscores.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// stripQuotes removes one matching pair of single or double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
