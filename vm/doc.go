// Package vm implements the clox stack machine.
//
// This package contains:
//   - The bytecode interpreter and its fixed 256-slot value stack
//   - The runtime fault taxonomy (RuntimeError and its sentinels)
//   - Optional execution tracing to an io.Writer
//   - InterpretSource, which composes compilation and execution
package vm
