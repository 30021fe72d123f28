package vm

import (
	"fmt"
	"io"

	"github.com/chazu/clox/pkg/bytecode"
)

// StackMax is the number of value slots on the VM stack.
const StackMax = 256

// VM executes bytecode chunks.
type VM struct {
	// Current execution state
	chunk *bytecode.Chunk // Current bytecode chunk, nil before the first run
	ip    int             // Instruction pointer
	stack [StackMax]bytecode.Value
	sp    int // Stack pointer: next free slot

	// Debug/trace output, nil when tracing is off
	trace io.Writer
}

// Option configures a VM.
type Option func(*VM)

// WithTrace makes the VM write the stack and each instruction to w before
// executing it.
func WithTrace(w io.Writer) Option {
	return func(vm *VM) { vm.trace = w }
}

// New creates a new VM instance.
func New(opts ...Option) *VM {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// SetTrace replaces the trace writer. Pass nil to turn tracing off.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = w
}

// Tracing reports whether execution tracing is on.
func (vm *VM) Tracing() bool {
	return vm.trace != nil
}

// Chunk returns the chunk loaded by the most recent Interpret call.
func (vm *VM) Chunk() *bytecode.Chunk {
	return vm.chunk
}

// Interpret runs chunk from its first byte and returns the value produced by
// OpReturn. Any fault is returned as a *RuntimeError. The stack is reset on
// every call, so one VM can run any number of chunks in sequence.
func (vm *VM) Interpret(chunk *bytecode.Chunk) (bytecode.Value, error) {
	vm.chunk = chunk
	vm.ip = 0
	vm.resetStack()

	if chunk == nil {
		return bytecode.Nil, &RuntimeError{Kind: FaultNoChunk, Message: "No chunk to execute."}
	}
	return vm.run()
}

// run is the main execution loop.
func (vm *VM) run() (bytecode.Value, error) {
	code := vm.chunk.Code

	for {
		offset := vm.ip
		if offset >= len(code) {
			return bytecode.Nil, vm.fault(FaultTruncated, offset, nil, "Unexpected end of bytecode.")
		}

		op, err := bytecode.DecodeOpcode(code[offset])
		if err != nil {
			return bytecode.Nil, vm.fault(FaultUnknownOpcode, offset, err, "Unknown opcode %d.", code[offset])
		}
		vm.ip++

		if vm.trace != nil {
			vm.traceInstruction(offset)
		}

		if err := vm.checkStack(op, offset); err != nil {
			return bytecode.Nil, err
		}

		switch op {
		// ============ Constants ============
		case bytecode.OpConstant:
			if vm.ip >= len(code) {
				return bytecode.Nil, vm.fault(FaultTruncated, offset, nil, "Unexpected end of bytecode.")
			}
			idx := int(code[vm.ip])
			vm.ip++
			v, ok := vm.chunk.Constant(idx)
			if !ok {
				return bytecode.Nil, vm.fault(FaultInvalidConstant, offset, nil, "Invalid constant index %d.", idx)
			}
			vm.push(v)

		case bytecode.OpNil:
			vm.push(bytecode.Nil)

		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))

		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))

		// ============ Unary ============
		case bytecode.OpNegate:
			n, ok := vm.peek(0).AsNumber()
			if !ok {
				return bytecode.Nil, vm.fault(FaultTypeMismatch, offset, nil, "Operand must be a number.")
			}
			vm.stack[vm.sp-1] = bytecode.Number(-n)

		case bytecode.OpNot:
			vm.push(bytecode.Bool(vm.pop().IsFalsy()))

		// ============ Binary ============
		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool(a.Equal(b)))

		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply,
			bytecode.OpDivide, bytecode.OpGreater, bytecode.OpLess:
			b, okB := vm.peek(0).AsNumber()
			a, okA := vm.peek(1).AsNumber()
			if !okA || !okB {
				return bytecode.Nil, vm.fault(FaultTypeMismatch, offset, nil, "Operands must be numbers.")
			}
			if op == bytecode.OpDivide && b == 0 {
				return bytecode.Nil, vm.fault(FaultDivisionByZero, offset, nil, "Division by zero.")
			}
			vm.sp -= 2
			vm.push(arithmetic(op, a, b))

		// ============ Control ============
		case bytecode.OpReturn:
			return vm.pop(), nil

		default:
			// DecodeOpcode only yields defined opcodes; reaching here means
			// the dispatch switch is missing a case.
			panic(fmt.Sprintf("vm: unhandled opcode %s at offset %d", op, offset))
		}
	}
}

// arithmetic applies a numeric binary opcode. Operand order is a op b,
// with b the value that was on top of the stack.
func arithmetic(op bytecode.Opcode, a, b float64) bytecode.Value {
	switch op {
	case bytecode.OpAdd:
		return bytecode.Number(a + b)
	case bytecode.OpSubtract:
		return bytecode.Number(a - b)
	case bytecode.OpMultiply:
		return bytecode.Number(a * b)
	case bytecode.OpDivide:
		return bytecode.Number(a / b)
	case bytecode.OpGreater:
		return bytecode.Bool(a > b)
	case bytecode.OpLess:
		return bytecode.Bool(a < b)
	}
	panic(fmt.Sprintf("vm: %s is not arithmetic", op))
}

// checkStack verifies an instruction's stack effect before it runs, so the
// push and pop helpers below never touch an out-of-range slot.
func (vm *VM) checkStack(op bytecode.Opcode, offset int) error {
	info := bytecode.GetOpcodeInfo(op)
	if vm.sp < info.StackPop {
		return vm.fault(FaultStackUnderflow, offset, nil, "Stack underflow.")
	}
	if vm.sp-info.StackPop+info.StackPush > StackMax {
		return vm.fault(FaultStackOverflow, offset, nil, "Stack overflow.")
	}
	return nil
}

func (vm *VM) fault(kind FaultKind, offset int, cause error, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    vm.chunk.Line(offset),
		Offset:  offset,
		Cause:   cause,
	}
}

// Stack helpers

func (vm *VM) resetStack() {
	for i := 0; i < vm.sp; i++ {
		vm.stack[i] = bytecode.Nil
	}
	vm.sp = 0
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() bytecode.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

// peek returns the value distance slots below the top of the stack.
func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.sp-1-distance]
}

// StackDepth returns the number of values currently on the stack.
func (vm *VM) StackDepth() int {
	return vm.sp
}
