package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

func (d *driver) runREPL(stdin io.Reader) {
	fmt.Fprintln(d.stdout, "clox REPL (type 'exit' to quit, ':help' for commands)")

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(d.stdout, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(d.stdout)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, ":") {
			d.handleREPLCommand(line)
			continue
		}

		d.evalAndPrint(line)
	}
}

func (d *driver) handleREPLCommand(cmd string) {
	switch cmd {
	case ":help":
		fmt.Fprintln(d.stdout, "Commands:")
		fmt.Fprintln(d.stdout, "  :dis          Toggle bytecode disassembly")
		fmt.Fprintln(d.stdout, "  :trace        Toggle execution tracing")
		fmt.Fprintln(d.stdout, "  :last         Disassemble the last chunk run")
		fmt.Fprintln(d.stdout, "  :stack        Show the VM stack depth")
		fmt.Fprintln(d.stdout, "  :cache        Show the chunk cache size")
		fmt.Fprintln(d.stdout, "  :cache clear  Empty the chunk cache")
		fmt.Fprintln(d.stdout, "  :help         Show this help")
		fmt.Fprintln(d.stdout, "  exit          Quit the REPL")

	case ":dis":
		d.disasm = !d.disasm
		fmt.Fprintf(d.stdout, "Disassembly %s\n", onOff(d.disasm))

	case ":trace":
		if d.vm.Tracing() {
			d.vm.SetTrace(nil)
		} else {
			d.vm.SetTrace(d.stdout)
		}
		fmt.Fprintf(d.stdout, "Tracing %s\n", onOff(d.vm.Tracing()))

	case ":last":
		chunk := d.vm.Chunk()
		if chunk == nil {
			fmt.Fprintln(d.stdout, "Nothing has run yet.")
			return
		}
		fmt.Fprint(d.stdout, chunk.Disassemble("last"))

	case ":stack":
		// A fault leaves the operands it stopped on.
		fmt.Fprintf(d.stdout, "Stack depth: %d\n", d.vm.StackDepth())

	case ":cache", ":cache clear":
		d.handleCacheCommand(cmd == ":cache clear")

	default:
		fmt.Fprintf(d.stdout, "Unknown command: %s (try :help)\n", cmd)
	}
}

func (d *driver) handleCacheCommand(empty bool) {
	if d.store == nil {
		fmt.Fprintln(d.stdout, "Cache is disabled (run with -cache).")
		return
	}
	if empty {
		if err := d.store.Clear(); err != nil {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
			return
		}
	}
	n, err := d.store.Len()
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.stdout, "Cache: %d chunks in %s\n", n, d.store.Path())
}

// evalAndPrint runs one line and prints its value. Errors are reported and
// the REPL carries on.
func (d *driver) evalAndPrint(input string) {
	value, err := d.evaluate(input, "repl")
	if err != nil {
		d.reportError(err)
		return
	}
	fmt.Fprintln(d.stdout, value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
