package bytecode

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is returned when a byte does not name a defined opcode.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Opcode represents a bytecode instruction.
type Opcode byte

const (
	OpReturn   Opcode = 0x00 // Pop the result and stop
	OpConstant Opcode = 0x01 // Push constant from pool: OpConstant <index:u8>
	OpNegate   Opcode = 0x02 // Negate top of stack
	OpAdd      Opcode = 0x03 // Pop two, push sum
	OpSubtract Opcode = 0x04 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x05 // Pop two, push product
	OpDivide   Opcode = 0x06 // Pop two, push quotient
	OpNil      Opcode = 0x07 // Push nil
	OpTrue     Opcode = 0x08 // Push true
	OpFalse    Opcode = 0x09 // Push false
	OpNot      Opcode = 0x0A // Push true if TOS is falsy
	OpEqual    Opcode = 0x0B // Pop two, push structural equality
	OpGreater  Opcode = 0x0C // Pop two, push a > b
	OpLess     Opcode = 0x0D // Pop two, push a < b
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Mnemonic used by the disassembler
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable is indexed by opcode byte; it doubles as the closed set of
// valid opcodes.
var opcodeInfoTable = [...]OpcodeInfo{
	OpReturn:   {"OP_RETURN", 1, 0, 0},
	OpConstant: {"OP_CONSTANT", 0, 1, 1},
	OpNegate:   {"OP_NEGATE", 1, 1, 0},
	OpAdd:      {"OP_ADD", 2, 1, 0},
	OpSubtract: {"OP_SUBTRACT", 2, 1, 0},
	OpMultiply: {"OP_MULTIPLY", 2, 1, 0},
	OpDivide:   {"OP_DIVIDE", 2, 1, 0},
	OpNil:      {"OP_NIL", 0, 1, 0},
	OpTrue:     {"OP_TRUE", 0, 1, 0},
	OpFalse:    {"OP_FALSE", 0, 1, 0},
	OpNot:      {"OP_NOT", 1, 1, 0},
	OpEqual:    {"OP_EQUAL", 2, 1, 0},
	OpGreater:  {"OP_GREATER", 2, 1, 0},
	OpLess:     {"OP_LESS", 2, 1, 0},
}

// DecodeOpcode converts a raw instruction byte back to an Opcode.
// Bytes outside the defined set yield an error wrapping ErrUnknownOpcode;
// they are never coerced to a default opcode.
func DecodeOpcode(b byte) (Opcode, error) {
	if int(b) >= len(opcodeInfoTable) {
		return 0, fmt.Errorf("%w %d", ErrUnknownOpcode, b)
	}
	return Opcode(b), nil
}

// Valid reports whether op is one of the defined opcodes.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeInfoTable)
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if op.Valid() {
		return opcodeInfoTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsBinary returns true for opcodes that pop two operands and push one result.
func (op Opcode) IsBinary() bool {
	info := GetOpcodeInfo(op)
	return info.StackPop == 2 && info.StackPush == 1
}

// AllOpcodes returns a slice of all defined opcodes in encoding order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, len(opcodeInfoTable))
	for i := range opcodeInfoTable {
		opcodes[i] = Opcode(i)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
