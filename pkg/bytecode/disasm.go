package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk under a
// "== name ==" header.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for _, line := range c.DisassembleToLines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DisassembleToLines returns the disassembly as one string per instruction.
func (c *Chunk) DisassembleToLines() []string {
	var lines []string
	offset := 0
	for offset < len(c.Code) {
		var line string
		line, offset = c.DisassembleInstruction(offset)
		lines = append(lines, line)
	}
	return lines
}

// DisassembleInstruction renders the instruction at offset and returns the
// offset of the next one. Unknown opcode bytes are reported and skipped one
// byte at a time, so corrupted streams can still be listed.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	if offset < 0 || offset >= len(c.Code) {
		return fmt.Sprintf("%04d <end of code>", offset), len(c.Code)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)
	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", c.Line(offset))
	}

	op, err := DecodeOpcode(c.Code[offset])
	if err != nil {
		fmt.Fprintf(&sb, "Unknown opcode %d", c.Code[offset])
		return sb.String(), offset + 1
	}

	switch op {
	case OpConstant:
		return c.constantInstruction(&sb, op, offset)
	default:
		sb.WriteString(op.String())
		return sb.String(), offset + 1
	}
}

func (c *Chunk) constantInstruction(sb *strings.Builder, op Opcode, offset int) (string, int) {
	if offset+1 >= len(c.Code) {
		fmt.Fprintf(sb, "%-16s <truncated>", op)
		return sb.String(), len(c.Code)
	}
	idx := int(c.Code[offset+1])
	fmt.Fprintf(sb, "%-16s %4d '", op, idx)
	if v, ok := c.Constant(idx); ok {
		sb.WriteString(v.String())
	} else {
		sb.WriteString("INVALID_CONSTANT")
	}
	sb.WriteByte('\'')
	return sb.String(), offset + 2
}

// InstructionCount returns the number of instructions in the chunk.
// Note: This iterates through all code, so it's O(n).
func (c *Chunk) InstructionCount() int {
	count := 0
	offset := 0
	for offset < len(c.Code) {
		_, offset = c.DisassembleInstruction(offset)
		count++
	}
	return count
}
