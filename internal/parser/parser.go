package parser

import (
	"fmt"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

// SyntaxError is the parser's single failure type. Span is a byte range into
// the source; Line is 1-indexed and zero when unknown.
type SyntaxError struct {
	Msg      string
	Span     ast.Span
	Line     int
	LineText string
	Context  string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Context != "" {
		fmt.Fprintf(&b, "[%s] ", e.Context)
	}
	b.WriteString(e.Msg)
	if e.Line > 0 {
		fmt.Fprintf(&b, "\n  --> line %d", e.Line)
	}
	if e.LineText != "" {
		fmt.Fprintf(&b, "\n  | %s", e.LineText)
	}
	return b.String()
}

type parser struct {
	source  string
	lines   []string
	offsets []int
}

func newParser(source string) *parser {
	raw := strings.Split(source, "\n")
	lines := make([]string, len(raw))
	offsets := make([]int, len(raw)+1)
	off := 0
	for i, l := range raw {
		offsets[i] = off
		off += len(l) + 1
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	offsets[len(raw)] = len(source)
	return &parser{source: source, lines: lines, offsets: offsets}
}

func (p *parser) lineSpan(i int) ast.Span {
	if i >= len(p.lines) {
		return ast.Span{Start: len(p.source), End: len(p.source)}
	}
	return ast.Span{Start: p.offsets[i], End: p.offsets[i+1]}
}

func (p *parser) errorAt(msg string, i int, context string) *SyntaxError {
	text := ""
	if i < len(p.lines) {
		text = p.lines[i]
	}
	return &SyntaxError{Msg: msg, Span: p.lineSpan(i), Line: i + 1, LineText: text, Context: context}
}

func errAt(span ast.Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Span: span}
}

// Parse turns source text into a Program or a *SyntaxError. The top level is
// line-oriented: each non-blank, non-comment line is dispatched on its
// leading keyword, with fn/loop/if/for/match consuming the following lines
// up to their matching close brace.
func Parse(source string) (*ast.Program, error) {
	p := newParser(source)
	prog := &ast.Program{}

	i := 0
	for i < len(p.lines) {
		line := strings.TrimSpace(p.lines[i])
		span := p.lineSpan(i)

		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}

		switch {
		case strings.HasPrefix(line, "let "):
			let, err := parseLet(line, span)
			if err != nil {
				return nil, err
			}
			prog.Lets = append(prog.Lets, let)
			i++
		case strings.HasPrefix(line, "fn "):
			fn, next, err := p.parseFunction(i)
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, fn)
			i = next
		case strings.HasPrefix(line, "particle "):
			part, err := parseParticle(line, span)
			if err != nil {
				return nil, err
			}
			prog.Particles = append(prog.Particles, part)
			i++
		case strings.HasPrefix(line, "force ") && !strings.Contains(line, "push"):
			force, err := parseForce(line, span)
			if err != nil {
				return nil, err
			}
			prog.Forces = append(prog.Forces, force)
			i++
		case strings.HasPrefix(line, "simulate "):
			sim, err := parseSimulate(line, span)
			if err != nil {
				return nil, err
			}
			prog.Simulate = sim
			i++
		case strings.HasPrefix(line, "detect "):
			det, err := parseDetector(line, span)
			if err != nil {
				return nil, err
			}
			prog.Detectors = append(prog.Detectors, det)
			i++
		case strings.HasPrefix(line, "loop "):
			lp, next, err := p.parseLoop(i)
			if err != nil {
				return nil, err
			}
			prog.Loops = append(prog.Loops, lp)
			i = next
		case strings.HasPrefix(line, "well "):
			well, err := parseWell(line, span)
			if err != nil {
				return nil, err
			}
			prog.Wells = append(prog.Wells, well)
			i++
		case strings.HasPrefix(line, "if "):
			stmt, next, err := p.parseIf(i)
			if err != nil {
				return nil, err
			}
			prog.Statements = append(prog.Statements, stmt)
			i = next
		case strings.HasPrefix(line, "for "):
			stmt, next, err := p.parseFor(i)
			if err != nil {
				return nil, err
			}
			prog.Statements = append(prog.Statements, stmt)
			i = next
		case strings.HasPrefix(line, "match "):
			stmt, next, err := p.parseMatch(i)
			if err != nil {
				return nil, err
			}
			prog.Statements = append(prog.Statements, stmt)
			i = next
		default:
			if call, ok, err := parseCallLine(line, span); err != nil {
				return nil, err
			} else if ok {
				prog.Statements = append(prog.Statements, call)
				i++
				continue
			}
			first := ""
			if fields := strings.Fields(line); len(fields) > 0 {
				first = fields[0]
			}
			return nil, p.errorAt(fmt.Sprintf("Unexpected token: '%s'", first), i, "top-level parsing")
		}
	}

	if prog.Simulate == nil {
		return nil, &SyntaxError{Msg: "Missing 'simulate' declaration"}
	}
	return prog, nil
}

// parseCallLine parses `name(args)` as a bare call statement. Arguments are
// split on every comma; nested calls in statement position are not
// comma-safe, matching the grammar's historical behavior.
func parseCallLine(line string, span ast.Span) (ast.Stmt, bool, error) {
	paren := strings.IndexByte(line, '(')
	if paren < 0 {
		return nil, false, nil
	}
	name := strings.TrimSpace(line[:paren])
	if !isIdent(name) {
		return nil, false, nil
	}
	rest := line[paren:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return nil, false, nil
	}
	argsStr := strings.TrimSpace(rest[1:end])
	var args []ast.Expr
	if argsStr != "" {
		for _, a := range strings.Split(argsStr, ",") {
			e, err := parseExpr(strings.TrimSpace(a), span)
			if err != nil {
				return nil, false, err
			}
			args = append(args, e)
		}
	}
	return ast.CallStmt{Name: name, Args: args, Span: span}, true, nil
}

func parseLet(line string, span ast.Span) (ast.LetBinding, error) {
	rest := strings.TrimPrefix(line, "let ")
	eq := strings.Index(rest, " = ")
	if eq < 0 {
		return ast.LetBinding{}, errAt(span, "Expected '=' in let declaration: %s", line)
	}
	name := strings.TrimSpace(rest[:eq])
	if name == "" {
		return ast.LetBinding{}, errAt(span, "Empty variable name in let declaration")
	}
	expr, err := parseExpr(strings.TrimSpace(rest[eq+3:]), span)
	if err != nil {
		return ast.LetBinding{}, err
	}
	return ast.LetBinding{Name: name, Value: expr, Span: span}, nil
}

func parseParticle(line string, span ast.Span) (ast.ParticleDecl, error) {
	rest := strings.TrimPrefix(line, "particle ")
	at := strings.Index(rest, " at ")
	if at < 0 {
		return ast.ParticleDecl{}, errAt(span, "Expected 'at' in particle declaration: %s", line)
	}
	name := strings.TrimSpace(rest[:at])
	rest = rest[at+4:]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return ast.ParticleDecl{}, errAt(span, "Expected '(' in position: %s", line)
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ast.ParticleDecl{}, errAt(span, "Expected ')' in position: %s", line)
	}
	coords := strings.Split(rest[open+1:end], ",")
	if len(coords) != 2 {
		return ast.ParticleDecl{}, errAt(span, "Expected two coordinates in position: %s", line)
	}
	x, err := parseExpr(strings.TrimSpace(coords[0]), span)
	if err != nil {
		return ast.ParticleDecl{}, err
	}
	y, err := parseExpr(strings.TrimSpace(coords[1]), span)
	if err != nil {
		return ast.ParticleDecl{}, err
	}

	rest = rest[end+1:]
	mass := strings.Index(rest, "mass ")
	if mass < 0 {
		return ast.ParticleDecl{}, errAt(span, "Expected 'mass' in particle declaration: %s", line)
	}
	m, err := parseExpr(strings.TrimSpace(rest[mass+5:]), span)
	if err != nil {
		return ast.ParticleDecl{}, err
	}
	return ast.ParticleDecl{Name: name, X: x, Y: y, Mass: m, Span: span}, nil
}

func parseForce(line string, span ast.Span) (ast.ForceDecl, error) {
	rest := strings.TrimPrefix(line, "force ")
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return ast.ForceDecl{}, errAt(span, "Expected '(' in force declaration: %s", line)
	}
	forceType := strings.TrimSpace(rest[:open])
	rest = rest[open+1:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ast.ForceDecl{}, errAt(span, "Expected ')' in force declaration: %s", line)
	}
	args := strings.Split(rest[:end], ",")
	if len(args) != 2 {
		return ast.ForceDecl{}, errAt(span, "Expected two particle names in force: %s", line)
	}
	a := stripQuotes(strings.TrimSpace(args[0]))
	b := stripQuotes(strings.TrimSpace(args[1]))
	rest = strings.TrimSpace(rest[end+1:])

	var kind ast.ForceKind
	switch forceType {
	case "gravity":
		gStr, ok := strings.CutPrefix(rest, "G = ")
		if !ok {
			return ast.ForceDecl{}, errAt(span, "Expected 'G =' in gravity force: %s", line)
		}
		g, err := parseExpr(strings.TrimSpace(gStr), span)
		if err != nil {
			return ast.ForceDecl{}, err
		}
		kind = ast.Gravity{G: g}
	case "spring":
		kPos := strings.Index(rest, "k = ")
		if kPos < 0 {
			return ast.ForceDecl{}, errAt(span, "Expected 'k =' in spring force: %s", line)
		}
		afterK := rest[kPos+4:]
		restPos := strings.Index(afterK, " rest = ")
		if restPos < 0 {
			return ast.ForceDecl{}, errAt(span, "Expected 'rest =' in spring force: %s", line)
		}
		k, err := parseExpr(strings.TrimSpace(afterK[:restPos]), span)
		if err != nil {
			return ast.ForceDecl{}, err
		}
		restLen, err := parseExpr(strings.TrimSpace(afterK[restPos+8:]), span)
		if err != nil {
			return ast.ForceDecl{}, err
		}
		kind = ast.Spring{K: k, Rest: restLen}
	default:
		return ast.ForceDecl{}, errAt(span, "Unknown force type: %s", forceType)
	}
	return ast.ForceDecl{A: a, B: b, Kind: kind, Span: span}, nil
}

func parseSimulate(line string, span ast.Span) (*ast.SimulateDecl, error) {
	rest := strings.TrimPrefix(line, "simulate ")
	dtPos := strings.Index(rest, "dt = ")
	if dtPos < 0 {
		return nil, errAt(span, "Expected 'dt =' in simulate: %s", line)
	}
	afterDt := rest[dtPos+5:]
	stepsPos := strings.Index(afterDt, " steps = ")
	if stepsPos < 0 {
		return nil, errAt(span, "Expected 'steps =' in simulate: %s", line)
	}
	dt, err := parseExpr(strings.TrimSpace(afterDt[:stepsPos]), span)
	if err != nil {
		return nil, err
	}
	steps, err := parseExpr(strings.TrimSpace(afterDt[stepsPos+9:]), span)
	if err != nil {
		return nil, err
	}
	return &ast.SimulateDecl{Dt: dt, Steps: steps, Span: span}, nil
}

func parseDetector(line string, span ast.Span) (ast.DetectorDecl, error) {
	rest := strings.TrimPrefix(line, "detect ")
	eq := strings.Index(rest, " = ")
	if eq < 0 {
		return ast.DetectorDecl{}, errAt(span, "Expected '=' in detector: %s", line)
	}
	name := strings.TrimSpace(rest[:eq])
	rest = strings.TrimSpace(rest[eq+3:])

	var kind ast.DetectorKind
	switch {
	case strings.HasPrefix(rest, "position("):
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return ast.DetectorDecl{}, errAt(span, "Expected ')' in position detector: %s", line)
		}
		kind = ast.Position{Particle: strings.TrimSpace(rest[len("position("):end])}
	case strings.HasPrefix(rest, "distance("):
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return ast.DetectorDecl{}, errAt(span, "Expected ')' in distance detector: %s", line)
		}
		args := strings.Split(rest[len("distance("):end], ",")
		if len(args) != 2 {
			return ast.DetectorDecl{}, errAt(span, "Expected two particle names in distance detector: %s", line)
		}
		kind = ast.Distance{A: strings.TrimSpace(args[0]), B: strings.TrimSpace(args[1])}
	default:
		return ast.DetectorDecl{}, errAt(span, "Unknown detector type: %s", rest)
	}
	return ast.DetectorDecl{Name: name, Kind: kind, Span: span}, nil
}

func parseWell(line string, span ast.Span) (ast.WellDecl, error) {
	rest := strings.TrimPrefix(line, "well ")
	onPos := strings.Index(rest, " on ")
	if onPos < 0 {
		return ast.WellDecl{}, errAt(span, "Expected 'on' in well declaration: %s", line)
	}
	name := strings.TrimSpace(rest[:onPos])
	afterOn := rest[onPos+4:]

	ifPos := strings.Index(afterOn, " if ")
	if ifPos < 0 {
		return ast.WellDecl{}, errAt(span, "Expected 'if' in well declaration: %s", line)
	}
	target := strings.TrimSpace(afterOn[:ifPos])
	afterIf := afterOn[ifPos+4:]

	switch {
	case strings.HasPrefix(afterIf, "position("):
		end := strings.IndexByte(afterIf, ')')
		if end < 0 {
			return ast.WellDecl{}, errAt(span, "Expected ')' in position: %s", line)
		}
		particle := strings.TrimSpace(afterIf[len("position("):end])
		afterParen := afterIf[end+1:]

		var obs ast.Observable
		switch {
		case strings.HasPrefix(afterParen, ".x >= "):
			obs = ast.ObserveX{Particle: particle}
		case strings.HasPrefix(afterParen, ".y >= "):
			obs = ast.ObserveY{Particle: particle}
		default:
			return ast.WellDecl{}, errAt(span, "Expected '.x >= ' or '.y >= ' after position: %s", line)
		}
		threshold, depth, err := parseWellTail(afterParen[6:], line, span)
		if err != nil {
			return ast.WellDecl{}, err
		}
		return ast.WellDecl{Name: name, Target: target, Obs: obs, Threshold: threshold, Depth: depth, Span: span}, nil

	case strings.HasPrefix(afterIf, "distance("):
		end := strings.IndexByte(afterIf, ')')
		if end < 0 {
			return ast.WellDecl{}, errAt(span, "Expected ')' in distance: %s", line)
		}
		args := strings.Split(afterIf[len("distance("):end], ",")
		if len(args) != 2 {
			return ast.WellDecl{}, errAt(span, "Expected two particle names in distance: %s", line)
		}
		afterParen := afterIf[end+1:]
		if !strings.HasPrefix(afterParen, " >= ") {
			return ast.WellDecl{}, errAt(span, "Expected ' >= ' after distance: %s", line)
		}
		threshold, depth, err := parseWellTail(afterParen[4:], line, span)
		if err != nil {
			return ast.WellDecl{}, err
		}
		obs := ast.ObserveDistance{A: strings.TrimSpace(args[0]), B: strings.TrimSpace(args[1])}
		return ast.WellDecl{Name: name, Target: target, Obs: obs, Threshold: threshold, Depth: depth, Span: span}, nil

	default:
		return ast.WellDecl{}, errAt(span, "Expected 'position(' or 'distance(' in well: %s", line)
	}
}

func parseWellTail(s, line string, span ast.Span) (threshold, depth ast.Expr, err error) {
	depthPos := strings.Index(s, " depth ")
	if depthPos < 0 {
		return nil, nil, errAt(span, "Expected 'depth' in well: %s", line)
	}
	threshold, err = parseExpr(strings.TrimSpace(s[:depthPos]), span)
	if err != nil {
		return nil, nil, err
	}
	depth, err = parseExpr(strings.TrimSpace(s[depthPos+7:]), span)
	if err != nil {
		return nil, nil, err
	}
	return threshold, depth, nil
}
