package vm

import (
	"errors"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/pkg/bytecode"
)

// Status is the outcome of InterpretSource.
type Status int

const (
	StatusOK Status = iota
	StatusCompileError
	StatusRuntimeError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCompileError:
		return "compile_error"
	case StatusRuntimeError:
		return "runtime_error"
	}
	return "unknown"
}

// InterpretSource compiles source and runs the resulting chunk. A compile
// failure returns StatusCompileError and a *compiler.CompileError without
// touching the VM; a fault returns StatusRuntimeError and a *RuntimeError.
func (vm *VM) InterpretSource(source string) (bytecode.Value, Status, error) {
	chunk, err := compiler.Compile(source)
	if err != nil {
		return bytecode.Nil, StatusCompileError, err
	}
	return vm.InterpretChunk(chunk)
}

// InterpretChunk runs an already compiled chunk and classifies the result
// the same way InterpretSource does.
func (vm *VM) InterpretChunk(chunk *bytecode.Chunk) (bytecode.Value, Status, error) {
	v, err := vm.Interpret(chunk)
	if err != nil {
		return bytecode.Nil, StatusRuntimeError, err
	}
	return v, StatusOK, nil
}

// StatusOf classifies an error returned by this package or the compiler.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, compiler.ErrCompile):
		return StatusCompileError
	default:
		return StatusRuntimeError
	}
}
