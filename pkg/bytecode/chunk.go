package bytecode

import (
	"errors"
	"fmt"
)

// BytecodeVersion is the current bytecode format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// MaxConstants is the number of pool entries addressable by the one-byte
// operand of OpConstant.
const MaxConstants = 256

// ErrTooManyConstants is returned when a chunk's constant pool is full.
var ErrTooManyConstants = errors.New("too many constants in one chunk")

// Chunk is one unit of compiled bytecode: the instruction stream, a line
// table with one entry per code byte, and the constant pool.
//
// A chunk is grown by exactly one compiler and then handed whole to the VM;
// it is never shared between writers.
type Chunk struct {
	Code      []byte  // Bytecode instructions
	Lines     []int   // Source line of each byte in Code
	Constants []Value // Pool referenced by OpConstant
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Lines:     make([]int, 0, 64),
		Constants: make([]Value, 0, 8),
	}
}

// Write appends a single byte and records its source line. It returns the
// offset the byte was written at.
func (c *Chunk) Write(b byte, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return offset
}

// WriteOp appends an opcode.
func (c *Chunk) WriteOp(op Opcode, line int) int {
	return c.Write(byte(op), line)
}

// AddConstant appends a value to the pool and returns its index.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// WriteConstant adds value to the pool and emits an OpConstant loading it.
// If the pool already holds MaxConstants entries the chunk is left unchanged
// and ErrTooManyConstants is returned.
func (c *Chunk) WriteConstant(value Value, line int) error {
	if len(c.Constants) >= MaxConstants {
		return fmt.Errorf("%w (limit %d)", ErrTooManyConstants, MaxConstants)
	}
	idx := c.AddConstant(value)
	c.WriteOp(OpConstant, line)
	c.Write(byte(idx), line)
	return nil
}

// Constant returns the pool entry at index. ok is false when the index is
// out of range.
func (c *Chunk) Constant(index int) (Value, bool) {
	if index < 0 || index >= len(c.Constants) {
		return Nil, false
	}
	return c.Constants[index], true
}

// Line returns the source line recorded for the byte at offset, or 0 if the
// offset is outside the code.
func (c *Chunk) Line(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// Len returns the length of the code section.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// Validate checks the structural invariants of a chunk that did not come
// straight from the compiler (for example one decoded from the wire).
func (c *Chunk) Validate() error {
	if len(c.Lines) != len(c.Code) {
		return fmt.Errorf("line table has %d entries for %d code bytes", len(c.Lines), len(c.Code))
	}
	if len(c.Constants) > MaxConstants {
		return fmt.Errorf("%w: %d entries", ErrTooManyConstants, len(c.Constants))
	}
	return nil
}
