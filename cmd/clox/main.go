// clox CLI - compiles and runs clox expressions from a file or a REPL
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/clox/cache"
	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/config"
	"github.com/chazu/clox/pkg/bytecode"
	"github.com/chazu/clox/server"
	"github.com/chazu/clox/vm"
)

// Exit codes, following the BSD sysexits convention.
const (
	exitOK           = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

var log = commonlog.GetLogger("clox.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// driver holds the state shared by file mode and the REPL.
type driver struct {
	vm     *vm.VM
	store  *cache.Store
	stdout io.Writer
	stderr io.Writer

	disasm bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("clox", flag.ContinueOnError)
	fs.SetOutput(stderr)

	trace := fs.Bool("trace", false, "Trace each instruction with the stack contents")
	disasm := fs.Bool("disasm", false, "Print the compiled bytecode before running it")
	serveMode := fs.Bool("serve", false, "Start the evaluation server (Connect over HTTP, CBOR codec)")
	servePort := fs.Int("port", 4567, "Evaluation server port (used with -serve)")
	lspMode := fs.Bool("lsp", false, "Start the language server on stdio")
	useCache := fs.Bool("cache", false, "Cache compiled chunks in the sqlite database")
	verbose := fs.Bool("v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: clox [options] [file]\n\n")
		fmt.Fprintf(stderr, "Runs a clox file, or starts a REPL when no file is given.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  clox                   # Start REPL\n")
		fmt.Fprintf(stderr, "  clox -disasm expr.lox  # Show bytecode, then run\n")
		fmt.Fprintf(stderr, "  clox -serve -port 8080 # Start evaluation server on :8080\n")
		fmt.Fprintf(stderr, "  clox -lsp              # Start language server on stdio\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", config.FileName, err)
		return exitUsage
	}
	if cfg == nil {
		cfg = config.Default()
	}

	// Flags given on the command line override clox.toml.
	addr := cfg.Server.Addr
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trace":
			cfg.Run.Trace = *trace
		case "disasm":
			cfg.Run.Disassemble = *disasm
		case "cache":
			cfg.Cache.Enabled = *useCache
		case "port":
			addr = fmt.Sprintf(":%d", *servePort)
		case "v":
			if *verbose && cfg.Log.Verbosity < 1 {
				cfg.Log.Verbosity = 1
			}
		}
	})

	commonlog.Initialize(cfg.Log.Verbosity, cfg.LogPath())

	d := &driver{
		vm:     vm.New(),
		stdout: stdout,
		stderr: stderr,
		disasm: cfg.Run.Disassemble,
	}
	if cfg.Run.Trace {
		d.vm.SetTrace(stdout)
	}

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.CachePath())
		if err != nil {
			fmt.Fprintf(stderr, "Error opening cache: %v\n", err)
			return exitIOError
		}
		defer store.Close()
		d.store = store
		log.Infof("using chunk cache %s", store.Path())
	}

	switch {
	case *lspMode:
		lsp := server.NewLSP(d.vm)
		if err := lsp.Run(); err != nil {
			fmt.Fprintf(stderr, "LSP server error: %v\n", err)
			return exitIOError
		}
		return exitOK

	case *serveMode:
		var opts []server.ServerOption
		if d.store != nil {
			opts = append(opts, server.WithCache(d.store))
		}
		srv := server.New(d.vm, opts...)
		defer srv.Stop()
		fmt.Fprintf(stdout, "clox server listening on %s\n", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return exitIOError
		}
		return exitOK

	case fs.NArg() == 1:
		return d.runFile(fs.Arg(0))

	default:
		d.runREPL(stdin)
		return exitOK
	}
}

// runFile compiles and runs a whole file once and prints its value.
func (d *driver) runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(d.stderr, "Could not read file %q: %v\n", path, err)
		return exitIOError
	}

	value, err := d.evaluate(string(source), path)
	if err != nil {
		d.reportError(err)
		if vm.StatusOf(err) == vm.StatusCompileError {
			return exitCompileError
		}
		return exitRuntimeError
	}

	fmt.Fprintln(d.stdout, value)
	return exitOK
}

// evaluate compiles source, going through the cache when one is open, and
// runs the chunk on the driver's VM.
func (d *driver) evaluate(source, name string) (bytecode.Value, error) {
	chunk, err := d.compile(source)
	if err != nil {
		return bytecode.Nil, err
	}

	if d.disasm {
		fmt.Fprint(d.stdout, chunk.Disassemble(name))
	}

	return d.vm.Interpret(chunk)
}

func (d *driver) compile(source string) (*bytecode.Chunk, error) {
	if d.store == nil {
		return compiler.Compile(source)
	}
	chunk, _, err := d.store.Compile(source)
	return chunk, err
}

// reportError writes compile diagnostics one per line, or the runtime fault.
func (d *driver) reportError(err error) {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		for _, diag := range ce.Diagnostics {
			fmt.Fprintln(d.stderr, diag)
		}
		return
	}
	fmt.Fprintln(d.stderr, err)
}
