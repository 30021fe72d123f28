package server

import (
	"errors"

	"github.com/chazu/clox/compiler"
)

// Procedure paths served by EvalService.
const (
	EvalServiceName      = "clox.v1.EvalService"
	EvaluateProcedure    = "/" + EvalServiceName + "/Evaluate"
	CompileProcedure     = "/" + EvalServiceName + "/Compile"
	DisassembleProcedure = "/" + EvalServiceName + "/Disassemble"
)

// SourceRequest carries the program text for every EvalService call.
type SourceRequest struct {
	Source string `cbor:"1,keyasint"`
	Name   string `cbor:"2,keyasint,omitempty"` // listing header for Disassemble
}

// Diagnostic mirrors compiler.Diagnostic on the wire.
type Diagnostic struct {
	Line    int    `cbor:"1,keyasint"`
	Where   string `cbor:"2,keyasint,omitempty"`
	Message string `cbor:"3,keyasint"`
	Text    string `cbor:"4,keyasint"` // formatted "[line N] Error ..." form
}

// EvaluateResponse is the result of compiling and running a program.
// Status is one of "ok", "compile_error" or "runtime_error".
type EvaluateResponse struct {
	RequestID   string       `cbor:"1,keyasint"`
	Status      string       `cbor:"2,keyasint"`
	Result      string       `cbor:"3,keyasint,omitempty"`
	Diagnostics []Diagnostic `cbor:"4,keyasint,omitempty"`
	Error       string       `cbor:"5,keyasint,omitempty"`
	Cached      bool         `cbor:"6,keyasint,omitempty"`
}

// CompileResponse carries the serialized chunk (see bytecode.MarshalChunk).
type CompileResponse struct {
	RequestID   string       `cbor:"1,keyasint"`
	Success     bool         `cbor:"2,keyasint"`
	Chunk       []byte       `cbor:"3,keyasint,omitempty"`
	Diagnostics []Diagnostic `cbor:"4,keyasint,omitempty"`
}

// DisassembleResponse carries the human-readable listing of a chunk.
type DisassembleResponse struct {
	RequestID   string       `cbor:"1,keyasint"`
	Success     bool         `cbor:"2,keyasint"`
	Text        string       `cbor:"3,keyasint,omitempty"`
	Diagnostics []Diagnostic `cbor:"4,keyasint,omitempty"`
}

// diagnosticsOf converts a compile error into wire diagnostics. Errors that
// are not compile errors yield a single line-less diagnostic.
func diagnosticsOf(err error) []Diagnostic {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return []Diagnostic{{Message: err.Error(), Text: err.Error()}}
	}
	out := make([]Diagnostic, len(ce.Diagnostics))
	for i, d := range ce.Diagnostics {
		out[i] = Diagnostic{
			Line:    d.Line,
			Where:   d.Where,
			Message: d.Message,
			Text:    d.String(),
		}
	}
	return out
}
