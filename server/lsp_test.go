package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/clox/vm"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_SimpleWord(t *testing.T) {
	text := "1 == tr"
	pos := protocol.Position{Line: 0, Character: 7}
	prefix := extractPrefix(text, pos)
	if prefix != "tr" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "tr")
	}
}

func TestExtractPrefix_EmptyLine(t *testing.T) {
	prefix := extractPrefix("", protocol.Position{Line: 0, Character: 0})
	if prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_MultiLine(t *testing.T) {
	text := "1 +\n2 ==\nni"
	prefix := extractPrefix(text, protocol.Position{Line: 2, Character: 2})
	if prefix != "ni" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "ni")
	}
}

func TestExtractPrefix_PastEnd(t *testing.T) {
	if got := extractPrefix("nil", protocol.Position{Line: 5, Character: 0}); got != "" {
		t.Errorf("extractPrefix = %q, want empty", got)
	}
	if got := extractPrefix("fa", protocol.Position{Line: 0, Character: 40}); got != "fa" {
		t.Errorf("extractPrefix = %q, want fa", got)
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"1 + true", protocol.Position{Line: 0, Character: 5}, "true"},
		{"1 + true", protocol.Position{Line: 0, Character: 8}, "true"},
		{"12.5 * 2", protocol.Position{Line: 0, Character: 1}, "12.5"},
		{"(nil)", protocol.Position{Line: 0, Character: 2}, "nil"},
		{"1 + 2", protocol.Position{Line: 0, Character: 2}, ""},
		{"x\nfalse", protocol.Position{Line: 1, Character: 0}, "false"},
		{"x", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tc := range tests {
		if got := extractWord(tc.text, tc.pos); got != tc.want {
			t.Errorf("extractWord(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Completion and hover
// ---------------------------------------------------------------------------

func TestComplete(t *testing.T) {
	items := complete("t")
	if len(items) != 1 || items[0].Label != "true" {
		t.Errorf("complete(t) = %v", items)
	}
	if items := complete("nil"); len(items) != 0 {
		t.Errorf("complete(nil) = %v, want none", items)
	}
	if items := complete("x"); len(items) != 0 {
		t.Errorf("complete(x) = %v, want none", items)
	}
}

func TestHover_Result(t *testing.T) {
	h := hover(vm.New(), "1 + 2", "1")
	content, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatalf("contents = %T", h.Contents)
	}
	if content.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("kind = %v", content.Kind)
	}
	for _, want := range []string{"**1** number literal", "**Result:** `3`", "== document ==", "OP_ADD"} {
		if !strings.Contains(content.Value, want) {
			t.Errorf("hover missing %q:\n%s", want, content.Value)
		}
	}
}

func TestHover_RuntimeError(t *testing.T) {
	h := hover(vm.New(), "-nil", "nil")
	content := h.Contents.(protocol.MarkupContent)
	if !strings.Contains(content.Value, "**nil** keyword") {
		t.Errorf("hover missing keyword header:\n%s", content.Value)
	}
	if !strings.Contains(content.Value, "Operand must be a number.") {
		t.Errorf("hover missing fault:\n%s", content.Value)
	}
}

func TestHover_CompileError(t *testing.T) {
	h := hover(vm.New(), "1 +", "")
	content := h.Contents.(protocol.MarkupContent)
	if !strings.Contains(content.Value, "[line 1] Error at end: Expect expression.") {
		t.Errorf("hover = %s", content.Value)
	}
	if strings.Contains(content.Value, "OP_") {
		t.Error("hover should not show bytecode for a failed compile")
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDocumentDiagnostics_Clean(t *testing.T) {
	diags := documentDiagnostics("1 + 2")
	if diags == nil || len(diags) != 0 {
		t.Errorf("diagnostics = %v, want empty non-nil slice", diags)
	}
}

func TestDocumentDiagnostics_Ranges(t *testing.T) {
	tests := []struct {
		text       string
		line       protocol.UInteger
		start, end protocol.UInteger
		message    string
	}{
		{"1 +\n  foo", 1, 2, 5, "Expect expression."},
		{"1 2", 0, 2, 3, "Expect end of expression."},
		{"(1 + 2", 0, 6, 6, "Expect ')' after expression."},
		{"1 + @", 0, 0, 5, "Unexpected character."},
		{"1 + 1 1", 0, 6, 7, "Expect end of expression."},
		{"true == true true", 0, 13, 17, "Expect end of expression."},
		{"1 +\n", 1, 0, 0, "Expect expression."},
	}

	for _, tc := range tests {
		diags := documentDiagnostics(tc.text)
		if len(diags) != 1 {
			t.Errorf("%q: got %d diagnostics, want 1", tc.text, len(diags))
			continue
		}
		d := diags[0]
		if d.Range.Start.Line != tc.line || d.Range.End.Line != tc.line {
			t.Errorf("%q: line = %d..%d, want %d", tc.text, d.Range.Start.Line, d.Range.End.Line, tc.line)
		}
		if d.Range.Start.Character != tc.start || d.Range.End.Character != tc.end {
			t.Errorf("%q: range = %d..%d, want %d..%d", tc.text, d.Range.Start.Character, d.Range.End.Character, tc.start, tc.end)
		}
		if d.Message != tc.message {
			t.Errorf("%q: message = %q, want %q", tc.text, d.Message, tc.message)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Errorf("%q: severity = %v", tc.text, d.Severity)
		}
		if d.Source == nil || *d.Source != lspName {
			t.Errorf("%q: source = %v", tc.text, d.Source)
		}
	}
}

func TestNewLSP(t *testing.T) {
	s := NewLSP(vm.New())
	defer s.worker.Stop()

	if s.handler.TextDocumentHover == nil || s.handler.TextDocumentDidOpen == nil {
		t.Error("handlers not registered")
	}
	if _, ok := s.document("file:///missing.lox"); ok {
		t.Error("unexpected document")
	}
}
