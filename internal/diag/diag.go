package diag

import (
	"fmt"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one analyzer finding. Span is optional; HasSpan reports
// whether it is set.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     ast.Span
	hasSpan  bool
}

func New(sev Severity, msg string, span ast.Span) Diagnostic {
	return Diagnostic{Severity: sev, Message: msg, Span: span, hasSpan: true}
}

func Message(sev Severity, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Message: msg}
}

func Errorf(span ast.Span, format string, args ...any) Diagnostic {
	return New(Error, fmt.Sprintf(format, args...), span)
}

func Warningf(span ast.Span, format string, args ...any) Diagnostic {
	return New(Warning, fmt.Sprintf(format, args...), span)
}

func (d Diagnostic) HasSpan() bool { return d.hasSpan }

// List is an ordered collection of diagnostics.
type List []Diagnostic

func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (l List) Errors() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

func (l List) Warnings() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}

// Position converts a span start offset to a 1-indexed line and column.
func Position(source string, span ast.Span) (line, col int) {
	line, col = 1, 1
	for i := 0; i < span.Start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// SourceLine returns the full text of the line containing the span start,
// without its trailing newline.
func SourceLine(source string, span ast.Span) string {
	start := span.Start
	if start > len(source) {
		start = len(source)
	}
	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	lineEnd := strings.IndexByte(source[lineStart:], '\n')
	if lineEnd < 0 {
		return source[lineStart:]
	}
	return source[lineStart : lineStart+lineEnd]
}

// Render formats a diagnostic for terminal output, with a caret marking
// the column when the span is known:
//
//	error: unknown particle 'b' at line 3, column 7
//	  force gravity(a, b) G = 1.0
//	        ^
func (d Diagnostic) Render(source string) string {
	var b strings.Builder
	if !d.hasSpan {
		fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
		return b.String()
	}
	line, col := Position(source, d.Span)
	fmt.Fprintf(&b, "%s: %s at line %d, column %d\n", d.Severity, d.Message, line, col)
	text := SourceLine(source, d.Span)
	fmt.Fprintf(&b, "  %s\n", text)
	b.WriteString("  ")
	for i := 1; i < col; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')
	return b.String()
}
