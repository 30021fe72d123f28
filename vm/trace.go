package vm

import (
	"fmt"
	"strings"
)

// traceInstruction writes the current stack, bottom first, followed by the
// disassembly of the instruction about to execute.
func (vm *VM) traceInstruction(offset int) {
	var sb strings.Builder
	sb.WriteString("          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(&sb, "[ %s ]", vm.stack[i])
	}
	sb.WriteByte('\n')

	line, _ := vm.chunk.DisassembleInstruction(offset)
	sb.WriteString(line)
	sb.WriteByte('\n')

	// Trace output is best effort; a failing writer must not change the
	// result of the program.
	_, _ = vm.trace.Write([]byte(sb.String()))
}
