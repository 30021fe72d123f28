package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompile is matched by every error returned from Compile.
var ErrCompile = errors.New("compile error")

// Diagnostic is a single reported compile problem.
type Diagnostic struct {
	Line    int
	Where   string // "at 'lexeme'", "at end", or empty for lexical errors
	Lexeme  string // offending token text, empty at end of input
	Column  int    // 0-based byte column of the offending token
	Message string
}

func (d Diagnostic) String() string {
	if d.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("[line %d] Error %s: %s", d.Line, d.Where, d.Message)
}

// CompileError carries the diagnostics of a failed compilation. Because the
// compiler stops reporting after the first error, there is normally one.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

func (e *CompileError) Unwrap() error {
	return ErrCompile
}
