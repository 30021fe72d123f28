package vm

import (
	"errors"
	"fmt"
)

// ErrRuntime is matched by every fault the VM reports.
var ErrRuntime = errors.New("runtime error")

// Fault sentinels. Each one wraps ErrRuntime.
var (
	ErrTypeMismatch    = fmt.Errorf("%w: type mismatch", ErrRuntime)
	ErrDivisionByZero  = fmt.Errorf("%w: division by zero", ErrRuntime)
	ErrStackOverflow   = fmt.Errorf("%w: stack overflow", ErrRuntime)
	ErrStackUnderflow  = fmt.Errorf("%w: stack underflow", ErrRuntime)
	ErrInvalidConstant = fmt.Errorf("%w: invalid constant index", ErrRuntime)
	ErrUnknownOpcode   = fmt.Errorf("%w: unknown opcode", ErrRuntime)
	ErrTruncated       = fmt.Errorf("%w: truncated bytecode", ErrRuntime)
	ErrNoChunk         = fmt.Errorf("%w: no chunk", ErrRuntime)
)

// FaultKind classifies a RuntimeError.
type FaultKind int

const (
	FaultTypeMismatch FaultKind = iota
	FaultDivisionByZero
	FaultStackOverflow
	FaultStackUnderflow
	FaultInvalidConstant
	FaultUnknownOpcode
	FaultTruncated
	FaultNoChunk
)

var faultSentinels = [...]error{
	FaultTypeMismatch:    ErrTypeMismatch,
	FaultDivisionByZero:  ErrDivisionByZero,
	FaultStackOverflow:   ErrStackOverflow,
	FaultStackUnderflow:  ErrStackUnderflow,
	FaultInvalidConstant: ErrInvalidConstant,
	FaultUnknownOpcode:   ErrUnknownOpcode,
	FaultTruncated:       ErrTruncated,
	FaultNoChunk:         ErrNoChunk,
}

var faultNames = [...]string{
	FaultTypeMismatch:    "TypeMismatch",
	FaultDivisionByZero:  "DivisionByZero",
	FaultStackOverflow:   "StackOverflow",
	FaultStackUnderflow:  "StackUnderflow",
	FaultInvalidConstant: "InvalidConstant",
	FaultUnknownOpcode:   "UnknownOpcode",
	FaultTruncated:       "Truncated",
	FaultNoChunk:         "NoChunk",
}

func (k FaultKind) String() string {
	if k >= 0 && int(k) < len(faultNames) {
		return faultNames[k]
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Sentinel returns the Err* value that errors.Is matches for this kind.
func (k FaultKind) Sentinel() error {
	if k >= 0 && int(k) < len(faultSentinels) {
		return faultSentinels[k]
	}
	return ErrRuntime
}

// RuntimeError is a fault raised while executing a chunk. Execution stops
// at the faulting instruction.
type RuntimeError struct {
	Kind    FaultKind
	Message string
	Line    int   // source line of the faulting instruction, 0 if unknown
	Offset  int   // byte offset of the faulting instruction
	Cause   error // underlying decode error, if any
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind.Sentinel(), e.Cause}
	}
	return []error{e.Kind.Sentinel()}
}
