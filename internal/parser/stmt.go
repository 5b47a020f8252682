package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

// parseFunction parses `fn name(params) {` plus its body. The opening brace
// may sit on the declaration line or alone on the next one.
func (p *parser) parseFunction(start int) (ast.FuncDecl, int, error) {
	line := strings.TrimSpace(p.lines[start])
	span := p.lineSpan(start)
	rest := strings.TrimPrefix(line, "fn ")

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return ast.FuncDecl{}, 0, errAt(span, "Expected '(' in function declaration: %s", line)
	}
	name := strings.TrimSpace(rest[:open])
	if !isIdent(name) {
		return ast.FuncDecl{}, 0, errAt(span, "Invalid function name: %s", name)
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ast.FuncDecl{}, 0, errAt(span, "Expected ')' in function declaration: %s", line)
	}

	var params []string
	if paramsStr := strings.TrimSpace(rest[:end]); paramsStr != "" {
		for _, raw := range strings.Split(paramsStr, ",") {
			param := strings.TrimSpace(raw)
			if !isIdent(param) {
				return ast.FuncDecl{}, 0, errAt(span, "Invalid parameter name: %s", param)
			}
			params = append(params, param)
		}
	}
	seen := make(map[string]bool, len(params))
	for _, param := range params {
		if seen[param] {
			return ast.FuncDecl{}, 0, errAt(span, "Duplicate parameter name: %s", param)
		}
		seen[param] = true
	}

	afterParen := strings.TrimSpace(rest[end+1:])
	var bodyStart int
	switch {
	case strings.HasPrefix(afterParen, "{"):
		bodyStart = start
	case afterParen == "":
		if start+1 >= len(p.lines) || !strings.HasPrefix(strings.TrimSpace(p.lines[start+1]), "{") {
			return ast.FuncDecl{}, 0, errAt(span, "Expected '{' after function declaration")
		}
		bodyStart = start + 1
	default:
		return ast.FuncDecl{}, 0, errAt(span, "Expected '{' after function declaration: %s", line)
	}

	body, next, err := p.parseBlock(bodyStart)
	if err != nil {
		return ast.FuncDecl{}, 0, err
	}
	if next <= bodyStart {
		return ast.FuncDecl{}, 0, errAt(span, "Expected '{' after function declaration: %s", line)
	}
	return ast.FuncDecl{Name: name, Params: params, Body: body, Span: span}, next, nil
}

// parseBlock collects statements up to the matching close brace. The line at
// start must open the block: either a bare "{" (optionally with a statement
// after it) or a header line ending in "{". On return, next points past a
// plain "}" terminator but AT a "} else" line so the if-parser can continue.
func (p *parser) parseBlock(start int) ([]ast.Stmt, int, error) {
	var stmts []ast.Stmt
	i := start
	braces := 0

	if i < len(p.lines) {
		first := strings.TrimSpace(p.lines[i])
		if strings.HasPrefix(first, "{") {
			braces = 1
			if rest := strings.TrimSpace(first[1:]); rest != "" && !strings.HasPrefix(rest, "#") {
				stmt, err := p.parseInlineStmt(rest, p.lineSpan(i))
				if err != nil {
					return nil, 0, err
				}
				stmts = append(stmts, stmt)
			}
			i++
		} else if strings.HasSuffix(first, "{") && !strings.HasPrefix(first, "#") {
			braces = 1
			i++
		}
	}

	for i < len(p.lines) && braces > 0 {
		line := strings.TrimSpace(p.lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if line == "}" || strings.HasPrefix(line, "} else") {
			braces--
			if braces == 0 {
				if line == "}" {
					i++
				}
				break
			}
			i++
			continue
		}
		stmt, next, err := p.parseStmt(i)
		if err != nil {
			return nil, 0, err
		}
		stmts = append(stmts, stmt)
		i = next
	}

	if braces > 0 {
		return nil, 0, p.errorAt(fmt.Sprintf("Unclosed block (last line %d)", i), start, "parse_block")
	}
	return stmts, i, nil
}

// parseStmt parses one statement starting at line i, returning the index of
// the line after it. Multi-line statements consume through their close brace.
func (p *parser) parseStmt(i int) (ast.Stmt, int, error) {
	line := strings.TrimSpace(p.lines[i])
	span := p.lineSpan(i)
	line = strings.TrimSpace(strings.TrimSuffix(line, ";"))

	switch {
	case strings.HasPrefix(line, "if "):
		return p.parseIf(i)
	case strings.HasPrefix(line, "for "):
		return p.parseFor(i)
	case strings.HasPrefix(line, "match "):
		return p.parseMatch(i)
	case strings.HasPrefix(line, "loop "):
		lp, next, err := p.parseLoop(i)
		if err != nil {
			return nil, 0, err
		}
		return ast.LoopStmt{Decl: lp}, next, nil
	}

	stmt, err := p.parseInlineStmt(line, span)
	if err != nil {
		return nil, 0, err
	}
	return stmt, i + 1, nil
}

// parseInlineStmt handles the single-line statement forms.
func (p *parser) parseInlineStmt(line string, span ast.Span) (ast.Stmt, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, ";"))
	switch {
	case strings.HasPrefix(line, "let "):
		let, err := parseLet(line, span)
		if err != nil {
			return nil, err
		}
		return ast.LetStmt{Name: let.Name, Value: let.Value, Span: span}, nil
	case strings.HasPrefix(line, "return "):
		expr, err := parseExpr(strings.TrimSpace(line[len("return "):]), span)
		if err != nil {
			return nil, err
		}
		return ast.ReturnStmt{Value: expr, Span: span}, nil
	case strings.HasPrefix(line, "particle "):
		decl, err := parseParticle(line, span)
		if err != nil {
			return nil, err
		}
		return ast.ParticleStmt{Decl: decl}, nil
	case strings.HasPrefix(line, "force ") && !strings.Contains(line, "push"):
		decl, err := parseForce(line, span)
		if err != nil {
			return nil, err
		}
		return ast.ForceStmt{Decl: decl}, nil
	case strings.HasPrefix(line, "detect "):
		decl, err := parseDetector(line, span)
		if err != nil {
			return nil, err
		}
		return ast.DetectorStmt{Decl: decl}, nil
	case strings.HasPrefix(line, "well "):
		decl, err := parseWell(line, span)
		if err != nil {
			return nil, err
		}
		return ast.WellStmt{Decl: decl}, nil
	}

	if call, ok, err := parseCallLine(line, span); err != nil {
		return nil, err
	} else if ok {
		return call, nil
	}
	return nil, errAt(span, "Invalid statement: '%s'", line)
}

// parseIf parses `if cond { ... }` with an optional `} else { ... }`. The
// condition's brace must sit on the if line.
func (p *parser) parseIf(start int) (ast.Stmt, int, error) {
	line := strings.TrimSpace(p.lines[start])
	span := p.lineSpan(start)

	brace := strings.IndexByte(line, '{')
	if brace < 0 {
		return nil, 0, p.errorAt("Expected '{' after if condition", start, "parse_if")
	}
	cond, err := parseExpr(strings.TrimSpace(line[3:brace]), span)
	if err != nil {
		return nil, 0, err
	}

	then, afterThen, err := p.parseBlock(start)
	if err != nil {
		return nil, 0, err
	}
	if afterThen <= start {
		return nil, 0, p.errorAt("Expected '{' after if condition", start, "parse_if")
	}

	var elseBody []ast.Stmt
	next := afterThen
	if afterThen < len(p.lines) {
		elseLine := strings.TrimSpace(p.lines[afterThen])
		switch {
		case strings.HasPrefix(elseLine, "} else {"):
			elseBody, next, err = p.parseBlock(afterThen)
			if err != nil {
				return nil, 0, err
			}
		case elseLine == "} else":
			if afterThen+1 < len(p.lines) {
				elseBody, next, err = p.parseBlock(afterThen + 1)
				if err != nil {
					return nil, 0, err
				}
			}
		case elseLine == "else" || strings.HasPrefix(elseLine, "else {"):
			elseBody, next, err = p.parseBlock(afterThen)
			if err != nil {
				return nil, 0, err
			}
		case strings.HasPrefix(elseLine, "else"):
			return nil, 0, p.errorAt("else if is not supported", afterThen, "parse_if")
		}
	}

	return ast.IfStmt{Cond: cond, Then: then, Else: elseBody, Span: span}, next, nil
}

// parseFor parses `for var in start..end { ... }`.
func (p *parser) parseFor(start int) (ast.Stmt, int, error) {
	line := strings.TrimSpace(p.lines[start])
	span := p.lineSpan(start)
	afterFor := line[4:]

	inPos := strings.Index(afterFor, " in ")
	if inPos < 0 {
		return nil, 0, errAt(span, "Expected ' in ' after for variable")
	}
	varName := strings.TrimSpace(afterFor[:inPos])
	if !isIdent(varName) {
		return nil, 0, errAt(span, "Invalid variable name in for loop: %s", varName)
	}
	afterIn := afterFor[inPos+4:]

	dots := strings.Index(afterIn, "..")
	if dots < 0 {
		return nil, 0, errAt(span, "Expected '..' in for loop range")
	}
	afterDots := afterIn[dots+2:]
	brace := strings.IndexByte(afterDots, '{')
	if brace < 0 {
		return nil, 0, errAt(span, "Expected '{' after for loop range")
	}

	startExpr, err := parseExpr(strings.TrimSpace(afterIn[:dots]), span)
	if err != nil {
		return nil, 0, err
	}
	endExpr, err := parseExpr(strings.TrimSpace(afterDots[:brace]), span)
	if err != nil {
		return nil, 0, err
	}

	body, next, err := p.parseBlock(start)
	if err != nil {
		return nil, 0, err
	}
	if next <= start {
		return nil, 0, errAt(span, "Expected '{' after for loop range")
	}
	return ast.ForStmt{Var: varName, Start: startExpr, End: endExpr, Body: body, Span: span}, next, nil
}

// parseMatch parses `match expr {` followed by `pattern => {` arms.
func (p *parser) parseMatch(start int) (ast.Stmt, int, error) {
	line := strings.TrimSpace(p.lines[start])
	span := p.lineSpan(start)
	afterMatch := line[6:]

	brace := strings.IndexByte(afterMatch, '{')
	if brace < 0 {
		return nil, 0, p.errorAt("Expected '{' after match expression", start, "parse_match")
	}
	scrutinee, err := parseExpr(strings.TrimSpace(afterMatch[:brace]), span)
	if err != nil {
		return nil, 0, err
	}

	var arms []ast.MatchArm
	i := start
	if strings.TrimSpace(afterMatch[brace+1:]) == "" {
		i = start + 1
	}
	braces := 1

	for i < len(p.lines) && braces > 0 {
		armLine := strings.TrimSpace(p.lines[i])
		if armLine == "" || strings.HasPrefix(armLine, "#") {
			i++
			continue
		}
		if armLine == "}" && braces == 1 {
			braces = 0
			i++
			break
		}

		arrow := strings.Index(armLine, "=>")
		if arrow < 0 {
			return nil, 0, p.errorAt(
				fmt.Sprintf("Unexpected token in match statement: '%s'. Expected pattern => { body } or '}'", armLine),
				i, "parse_match")
		}
		patternStr := strings.TrimSpace(armLine[:arrow])
		afterArrow := strings.TrimSpace(armLine[arrow+2:])

		arm := ast.MatchArm{}
		if patternStr == "_" {
			arm.Wildcard = true
		} else {
			val, err := strconv.ParseInt(patternStr, 10, 64)
			if err != nil {
				return nil, 0, p.errorAt(
					fmt.Sprintf("Match pattern must be integer literal or '_': '%s'", patternStr),
					i, "parse_match")
			}
			arm.Pattern = val
		}

		var bodyStart int
		switch {
		case strings.HasPrefix(afterArrow, "{"):
			bodyStart = i
		case afterArrow == "":
			if i+1 < len(p.lines) && strings.HasPrefix(strings.TrimSpace(p.lines[i+1]), "{") {
				bodyStart = i + 1
			} else {
				return nil, 0, p.errorAt("Expected '{' after match arm pattern", i, "parse_match")
			}
		default:
			return nil, 0, p.errorAt(
				fmt.Sprintf("Match arm body must be '{' or on new line, got: '%s'", afterArrow),
				i, "parse_match")
		}

		body, afterBody, err := p.parseBlock(bodyStart)
		if err != nil {
			return nil, 0, err
		}
		if afterBody <= bodyStart {
			return nil, 0, p.errorAt("Expected '{' after match arm pattern", i, "parse_match")
		}
		arm.Body = body
		arms = append(arms, arm)
		i = afterBody
	}

	if braces > 0 {
		return nil, 0, p.errorAt(fmt.Sprintf("Unclosed match statement (started at line %d)", start+1), start, "parse_match")
	}
	return ast.MatchStmt{Scrutinee: scrutinee, Arms: arms, Span: span}, i, nil
}

// parseLoop parses a loop header plus its body. Body lines other than
// `force push(...)` are ignored.
func (p *parser) parseLoop(start int) (ast.LoopDecl, int, error) {
	line := strings.TrimSpace(p.lines[start])
	span := p.lineSpan(start)
	rest := strings.TrimPrefix(line, "loop ")

	var kind ast.LoopKind
	switch {
	case strings.HasPrefix(rest, "for "):
		afterFor := rest[4:]
		cyclesEnd := strings.Index(afterFor, " cycles")
		if cyclesEnd < 0 {
			return ast.LoopDecl{}, 0, errAt(span, "Expected 'cycles' in for loop: %s", line)
		}
		cycles, err := parseExpr(strings.TrimSpace(afterFor[:cyclesEnd]), span)
		if err != nil {
			return ast.LoopDecl{}, 0, err
		}
		freq, damping, target, err := p.parseLoopTail(afterFor[cyclesEnd+7:], line, span)
		if err != nil {
			return ast.LoopDecl{}, 0, err
		}
		kind = ast.ForCycles{Cycles: cycles, Frequency: freq, Damping: damping, Target: target}

	case strings.HasPrefix(rest, "while "):
		afterWhile := rest[6:]
		withPos := strings.Index(afterWhile, " with frequency ")
		if withPos < 0 {
			return ast.LoopDecl{}, 0, errAt(span, "Expected 'with frequency' in while loop: %s", line)
		}
		cond, err := parseCondition(strings.TrimSpace(afterWhile[:withPos]), span)
		if err != nil {
			return ast.LoopDecl{}, 0, err
		}
		freq, damping, target, err := p.parseLoopTail(afterWhile[withPos+1:], line, span)
		if err != nil {
			return ast.LoopDecl{}, 0, err
		}
		kind = ast.WhileCond{Cond: cond, Frequency: freq, Damping: damping, Target: target}

	default:
		return ast.LoopDecl{}, 0, errAt(span, "Unknown loop type: %s", line)
	}

	var body []ast.Push
	i := start + 1
	braces := 1
	for i < len(p.lines) && braces > 0 {
		bodyLine := strings.TrimSpace(p.lines[i])
		bodySpan := p.lineSpan(i)

		if bodyLine == "}" {
			braces--
			if braces == 0 {
				i++
				break
			}
		} else if strings.HasSuffix(bodyLine, "{") {
			braces++
		}

		if braces > 0 && strings.HasPrefix(bodyLine, "force push(") {
			push, err := parsePush(bodyLine, bodySpan)
			if err != nil {
				return ast.LoopDecl{}, 0, err
			}
			body = append(body, push)
		}
		i++
	}
	if braces > 0 {
		return ast.LoopDecl{}, 0, errAt(span, "Unclosed loop body")
	}

	return ast.LoopDecl{Kind: kind, Body: body, Span: span}, i, nil
}

// parseLoopTail parses `with frequency <expr> damping <expr> on <target> {`.
func (p *parser) parseLoopTail(s, line string, span ast.Span) (freq, damping ast.Expr, target string, err error) {
	freqStart := strings.Index(s, "with frequency ")
	if freqStart < 0 {
		return nil, nil, "", errAt(span, "Expected 'with frequency' in for loop: %s", line)
	}
	afterFreq := s[freqStart+len("with frequency "):]

	freqEnd := strings.Index(afterFreq, " damping ")
	if freqEnd < 0 {
		return nil, nil, "", errAt(span, "Expected 'damping' after frequency: %s", line)
	}
	freq, err = parseExpr(strings.TrimSpace(afterFreq[:freqEnd]), span)
	if err != nil {
		return nil, nil, "", err
	}

	afterDamp := afterFreq[freqEnd+9:]
	dampEnd := strings.Index(afterDamp, " on ")
	if dampEnd < 0 {
		return nil, nil, "", errAt(span, "Expected 'on' after damping: %s", line)
	}
	damping, err = parseExpr(strings.TrimSpace(afterDamp[:dampEnd]), span)
	if err != nil {
		return nil, nil, "", err
	}

	afterOn := afterDamp[dampEnd+4:]
	switch {
	case strings.HasSuffix(afterOn, " {"):
		target = strings.TrimSpace(afterOn[:len(afterOn)-2])
	case strings.HasSuffix(afterOn, "{"):
		target = strings.TrimSpace(afterOn[:len(afterOn)-1])
	default:
		return nil, nil, "", errAt(span, "Expected '{' after particle name: %s", line)
	}
	return freq, damping, target, nil
}

// parseCondition parses `position(p).x < expr`, `position(p).y > expr`, or
// `distance(a, b) < expr` forms.
func parseCondition(s string, span ast.Span) (ast.Condition, error) {
	if pos := strings.Index(s, "position("); pos >= 0 {
		end := strings.IndexByte(s, ')')
		if end < 0 {
			return ast.Condition{}, errAt(span, "Expected ')' in position condition: %s", s)
		}
		particle := strings.TrimSpace(s[pos+len("position(") : end])
		afterParen := s[end+1:]

		for _, form := range []struct {
			prefix string
			obs    ast.Observable
			op     ast.CmpOp
		}{
			{".x < ", ast.ObserveX{Particle: particle}, ast.CmpLess},
			{".x > ", ast.ObserveX{Particle: particle}, ast.CmpGreater},
			{".y < ", ast.ObserveY{Particle: particle}, ast.CmpLess},
			{".y > ", ast.ObserveY{Particle: particle}, ast.CmpGreater},
		} {
			if strings.HasPrefix(afterParen, form.prefix) {
				threshold, err := parseExpr(strings.TrimSpace(afterParen[5:]), span)
				if err != nil {
					return ast.Condition{}, err
				}
				return ast.Condition{Op: form.op, Obs: form.obs, Threshold: threshold}, nil
			}
		}
	}

	if strings.HasPrefix(s, "distance(") {
		afterDist := s[len("distance("):]
		end := strings.IndexByte(afterDist, ')')
		if end < 0 {
			return ast.Condition{}, errAt(span, "Expected ')' in distance condition: %s", s)
		}
		args := strings.Split(afterDist[:end], ",")
		if len(args) != 2 {
			return ast.Condition{}, errAt(span, "Expected two particle names in distance condition: %s", s)
		}
		obs := ast.ObserveDistance{A: strings.TrimSpace(args[0]), B: strings.TrimSpace(args[1])}
		rest := strings.TrimSpace(afterDist[end+1:])
		switch {
		case strings.HasPrefix(rest, "< "):
			threshold, err := parseExpr(strings.TrimSpace(rest[2:]), span)
			if err != nil {
				return ast.Condition{}, err
			}
			return ast.Condition{Op: ast.CmpLess, Obs: obs, Threshold: threshold}, nil
		case strings.HasPrefix(rest, "> "):
			threshold, err := parseExpr(strings.TrimSpace(rest[2:]), span)
			if err != nil {
				return ast.Condition{}, err
			}
			return ast.Condition{Op: ast.CmpGreater, Obs: obs, Threshold: threshold}, nil
		}
	}

	return ast.Condition{}, errAt(span, "Unknown condition format: %s", s)
}

// parsePush parses `force push(target) magnitude <expr> direction (<expr>, <expr>)`.
func parsePush(line string, span ast.Span) (ast.Push, error) {
	rest := strings.TrimPrefix(line, "force push(")
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ast.Push{}, errAt(span, "Expected ')' in push force: %s", line)
	}
	target := strings.TrimSpace(rest[:end])
	rest = strings.TrimSpace(rest[end+1:])

	magStart := strings.Index(rest, "magnitude ")
	if magStart < 0 {
		return ast.Push{}, errAt(span, "Expected 'magnitude' in push force: %s", line)
	}
	afterMag := rest[magStart+len("magnitude "):]
	magEnd := strings.Index(afterMag, " direction ")
	if magEnd < 0 {
		return ast.Push{}, errAt(span, "Expected 'direction' in push force: %s", line)
	}
	magnitude, err := parseExpr(strings.TrimSpace(afterMag[:magEnd]), span)
	if err != nil {
		return ast.Push{}, err
	}

	afterDir := afterMag[magEnd+len(" direction "):]
	open := strings.IndexByte(afterDir, '(')
	if open < 0 {
		return ast.Push{}, errAt(span, "Expected '(' in direction: %s", line)
	}
	dirEnd := strings.IndexByte(afterDir, ')')
	if dirEnd < 0 {
		return ast.Push{}, errAt(span, "Expected ')' in direction: %s", line)
	}
	coords := strings.Split(afterDir[open+1:dirEnd], ",")
	if len(coords) != 2 {
		return ast.Push{}, errAt(span, "Expected two coordinates in direction: %s", line)
	}
	dx, err := parseExpr(strings.TrimSpace(coords[0]), span)
	if err != nil {
		return ast.Push{}, err
	}
	dy, err := parseExpr(strings.TrimSpace(coords[1]), span)
	if err != nil {
		return ast.Push{}, err
	}
	return ast.Push{Target: target, Magnitude: magnitude, DirX: dx, DirY: dy}, nil
}
