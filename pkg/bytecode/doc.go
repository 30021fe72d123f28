// Package bytecode defines the compiled form of clox expressions: the
// runtime Value model, the opcode set, and the Chunk container that the
// compiler fills and the VM executes.
//
// The bytecode format is designed for:
//   - Compact representation (one byte per opcode, one byte of operand for
//     constant loads)
//   - Fast decoding (fixed-width opcodes, a closed opcode set with an explicit
//     fallible byte-to-opcode conversion)
//   - Easy serialization (chunks encode to canonical CBOR for caching and
//     transport)
//
// # Chunk Layout
//
// A Chunk holds three parallel pieces of state:
//
//   - Code: the instruction stream. Each instruction is an opcode byte,
//     optionally followed by operand bytes. Only OpConstant has an operand:
//     a one-byte index into the constant pool.
//
//   - Lines: one source line per byte of Code. The table is deliberately not
//     run-length encoded, so looking up the line of any offset is O(1).
//
//   - Constants: the insertion-ordered pool of literal Values. Because the
//     operand is a single byte, a chunk can address at most 256 constants;
//     WriteConstant refuses to emit a load past that limit.
//
// # Values
//
// Value is a small tagged union of Number (float64), Bool and Nil. Equality is
// structural and never fails across kinds. Only nil and false are falsy.
//
// # Disassembly
//
// Disassemble renders a chunk one instruction per line: byte offset, source
// line ("   |" when unchanged), mnemonic, and for constant loads the pool index
// and printed value. Unknown opcode bytes are reported and skipped rather than
// aborting the listing.
package bytecode
