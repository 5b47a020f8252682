package diag

import (
	"strings"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

func TestPosition(t *testing.T) {
	source := "first\nsecond line\nthird"
	tests := []struct {
		name       string
		start      int
		line, col  int
	}{
		{"start of file", 0, 1, 1},
		{"mid first line", 3, 1, 4},
		{"start of second line", 6, 2, 1},
		{"inside second line", 13, 2, 8},
		{"third line", 18, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := Position(source, ast.Span{Start: tt.start})
			if line != tt.line || col != tt.col {
				t.Errorf("Position(%d) = (%d, %d), want (%d, %d)", tt.start, line, col, tt.line, tt.col)
			}
		})
	}
}

func TestSourceLine(t *testing.T) {
	source := "alpha\nbeta\ngamma"
	if got := SourceLine(source, ast.Span{Start: 7}); got != "beta" {
		t.Errorf("SourceLine = %q, want %q", got, "beta")
	}
	if got := SourceLine(source, ast.Span{Start: 12}); got != "gamma" {
		t.Errorf("last line without newline: got %q", got)
	}
}

func TestRenderCaret(t *testing.T) {
	source := "particle a at (0, 0) mass 1.0\nforce gravity(a, b) G = 1.0"
	d := New(Error, "Unknown particle: b", ast.Span{Start: 30 + 6})

	out := d.Render(source)
	if !strings.Contains(out, "error: Unknown particle: b at line 2, column 7") {
		t.Errorf("header missing, got:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}
	caret := strings.IndexByte(lines[2], '^')
	// Two leading spaces of indent plus column-1 offset.
	if caret != 2+6 {
		t.Errorf("caret at %d, want %d:\n%s", caret, 2+6, out)
	}
}

func TestRenderWithoutSpan(t *testing.T) {
	d := Message(Warning, "something minor")
	if got := d.Render("irrelevant"); got != "warning: something minor" {
		t.Errorf("Render = %q", got)
	}
}

func TestListFiltering(t *testing.T) {
	l := List{
		Message(Warning, "w1"),
		Message(Error, "e1"),
		Message(Warning, "w2"),
	}
	if !l.HasErrors() {
		t.Error("HasErrors = false")
	}
	if got := len(l.Errors()); got != 1 {
		t.Errorf("Errors() len = %d", got)
	}
	if got := len(l.Warnings()); got != 2 {
		t.Errorf("Warnings() len = %d", got)
	}
	if (List{Message(Warning, "only")}).HasErrors() {
		t.Error("warnings alone must not count as errors")
	}
}
