package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleEmpty(t *testing.T) {
	c := NewChunk()

	output := c.Disassemble("empty")

	if output != "== empty ==\n" {
		t.Errorf("Disassemble(empty) = %q", output)
	}
}

func TestDisassembleConstantAndReturn(t *testing.T) {
	c := NewChunk()
	if err := c.WriteConstant(Number(1.2), 123); err != nil {
		t.Fatal(err)
	}
	c.WriteOp(OpReturn, 123)

	lines := c.DisassembleToLines()
	if len(lines) != 2 {
		t.Fatalf("got %d instructions, want 2: %q", len(lines), lines)
	}
	if want := "0000  123 OP_CONSTANT         0 '1.2'"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if want := "0002    | OP_RETURN"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}

	if c.InstructionCount() != 2 {
		t.Errorf("InstructionCount() = %d, want 2", c.InstructionCount())
	}
}

func TestDisassembleOffsets(t *testing.T) {
	c := NewChunk()
	if err := c.WriteConstant(Number(1), 1); err != nil {
		t.Fatal(err)
	}
	c.WriteOp(OpReturn, 1)

	off, next := 0, 0
	var offsets []int
	for off < c.Len() {
		offsets = append(offsets, off)
		_, next = c.DisassembleInstruction(off)
		if next <= off {
			t.Fatalf("offset did not advance: %d -> %d", off, next)
		}
		off = next
	}
	if len(offsets) != 2 || offsets[0] != 0 || offsets[1] != 2 {
		t.Errorf("offsets = %v, want [0 2]", offsets)
	}
}

func TestDisassembleLineChanges(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpTrue, 1)
	c.WriteOp(OpNot, 1)
	c.WriteOp(OpReturn, 2)

	lines := c.DisassembleToLines()
	if !strings.HasPrefix(lines[0], "0000    1 ") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0001    | ") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "0002    2 ") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	c := NewChunk()
	c.Write(0xEE, 1)
	c.WriteOp(OpReturn, 1)

	lines := c.DisassembleToLines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Unknown opcode 238") {
		t.Errorf("line 0 = %q, want unknown opcode report", lines[0])
	}
	if !strings.Contains(lines[1], "OP_RETURN") {
		t.Errorf("line 1 = %q, want OP_RETURN", lines[1])
	}
}

func TestDisassembleTruncatedConstant(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpConstant, 1)

	lines := c.DisassembleToLines()
	if len(lines) != 1 || !strings.Contains(lines[0], "<truncated>") {
		t.Errorf("lines = %q, want truncated constant", lines)
	}
}

func TestDisassembleInvalidConstantIndex(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpConstant, 1)
	c.Write(9, 1)

	line, next := c.DisassembleInstruction(0)
	if !strings.Contains(line, "INVALID_CONSTANT") {
		t.Errorf("line = %q, want INVALID_CONSTANT", line)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}
}

func TestDisassembleAllOpcodes(t *testing.T) {
	c := NewChunk()
	c.AddConstant(Bool(false))
	for _, op := range AllOpcodes() {
		c.WriteOp(op, 1)
		for i := 0; i < op.OperandLen(); i++ {
			c.Write(0, 1)
		}
	}

	output := c.Disassemble("all")
	for _, op := range AllOpcodes() {
		if !strings.Contains(output, op.String()) {
			t.Errorf("disassembly missing %s", op)
		}
	}
	if c.InstructionCount() != OpcodeCount() {
		t.Errorf("InstructionCount() = %d, want %d", c.InstructionCount(), OpcodeCount())
	}
}
