package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI runs the driver with the given stdin and returns its exit code and
// captured output.
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// writeSource writes source to a file in a fresh temp dir and returns its path.
func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expr.lox")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// File mode
// ---------------------------------------------------------------------------

func TestRun_FileExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"ok", "1 + 2 * 3", exitOK, "7\n", ""},
		{"grouping", "(1 + 2) * 3 == 9", exitOK, "true\n", ""},
		{"compile error", "1 +", exitCompileError, "", "[line 1] Error at end: Expect expression.\n"},
		{"runtime error", "\n-nil", exitRuntimeError, "", "[line 2] Operand must be a number.\n"},
		{"division by zero", "1 / 0", exitRuntimeError, "", "[line 1] Division by zero.\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", writeSource(t, tc.source))
			if code != tc.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tc.wantCode, stderr)
			}
			if stdout != tc.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout, tc.wantStdout)
			}
			if stderr != tc.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr, tc.wantStderr)
			}
		})
	}
}

func TestRun_CompileErrorOnLaterLine(t *testing.T) {
	code, _, stderr := runCLI(t, "", writeSource(t, "(1 +\n2"))
	if code != exitCompileError {
		t.Fatalf("exit code = %d, want %d", code, exitCompileError)
	}
	if !strings.HasPrefix(stderr, "[line 2] Error") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_MissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "", filepath.Join(t.TempDir(), "nope.lox"))
	if code != exitIOError {
		t.Errorf("exit code = %d, want %d", code, exitIOError)
	}
	if !strings.Contains(stderr, "Could not read file") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t, "", "a.lox", "b.lox"); code != exitUsage {
		t.Errorf("two files: exit code = %d, want %d", code, exitUsage)
	}
	if code, _, _ := runCLI(t, "", "-no-such-flag"); code != exitUsage {
		t.Errorf("bad flag: exit code = %d, want %d", code, exitUsage)
	}
	code, _, stderr := runCLI(t, "", "-h")
	if code != exitOK {
		t.Errorf("-h: exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr, "Usage: clox") {
		t.Errorf("-h output = %q", stderr)
	}
}

func TestRun_Disassemble(t *testing.T) {
	path := writeSource(t, "1 + 2")
	code, stdout, _ := runCLI(t, "", "-disasm", path)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"== " + path + " ==", "OP_CONSTANT", "OP_ADD", "OP_RETURN", "3\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestRun_Trace(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-trace", writeSource(t, "1 + 2"))
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "          [ 1 ][ 2 ]\n") {
		t.Errorf("trace missing stack line:\n%s", stdout)
	}
	if !strings.HasSuffix(stdout, "3\n") {
		t.Errorf("stdout = %q, want result last", stdout)
	}
}

// ---------------------------------------------------------------------------
// Configuration and cache
// ---------------------------------------------------------------------------

func TestRun_ConfigEnablesCache(t *testing.T) {
	dir := t.TempDir()
	toml := "[cache]\nenabled = true\npath = \"chunks.db\"\n"
	if err := os.WriteFile(filepath.Join(dir, "clox.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	path := writeSource(t, "2 * 21")
	for i := 0; i < 2; i++ {
		code, stdout, stderr := runCLI(t, "", path)
		if code != exitOK || stdout != "42\n" {
			t.Fatalf("run %d: code %d stdout %q stderr %q", i, code, stdout, stderr)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks.db")); err != nil {
		t.Errorf("cache database not created: %v", err)
	}
}

func TestRun_ConfigFlagsOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clox.toml"), []byte("[run]\ndisassemble = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	path := writeSource(t, "true")
	_, stdout, _ := runCLI(t, "", path)
	if !strings.Contains(stdout, "OP_TRUE") {
		t.Errorf("config should enable disassembly:\n%s", stdout)
	}

	_, stdout, _ = runCLI(t, "", "-disasm=false", path)
	if stdout != "true\n" {
		t.Errorf("flag should disable disassembly, stdout = %q", stdout)
	}
}

func TestRun_BadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clox.toml"), []byte("[run]\nspeed = 11\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	code, _, stderr := runCLI(t, "", writeSource(t, "1"))
	if code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "unknown keys") {
		t.Errorf("stderr = %q", stderr)
	}
}

// ---------------------------------------------------------------------------
// REPL
// ---------------------------------------------------------------------------

func TestREPL_Session(t *testing.T) {
	input := strings.Join([]string{
		"1 + 2",
		"",
		"1 +",
		"-nil",
		":dis",
		"-3",
		":dis",
		"nil",
		":bogus",
		"exit",
		"99",
	}, "\n")

	code, stdout, stderr := runCLI(t, input)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}

	for _, want := range []string{
		"clox REPL",
		"> 3\n",
		"Disassembly on\n",
		"OP_NEGATE",
		"-3\n",
		"Disassembly off\n",
		"> nil\n",
		"Unknown command: :bogus",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "99") {
		t.Error("input after exit should not be evaluated")
	}

	for _, want := range []string{
		"[line 1] Error at end: Expect expression.",
		"[line 1] Operand must be a number.",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestREPL_TraceToggle(t *testing.T) {
	_, stdout, _ := runCLI(t, ":trace\n1\n:trace\n2\n")
	if !strings.Contains(stdout, "Tracing on\n") || !strings.Contains(stdout, "Tracing off\n") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := strings.Count(stdout, "OP_RETURN"); got != 1 {
		t.Errorf("traced %d returns, want 1:\n%s", got, stdout)
	}
}

func TestREPL_EOF(t *testing.T) {
	code, stdout, _ := runCLI(t, "1")
	if code != exitOK {
		t.Errorf("exit code = %d", code)
	}
	if !strings.HasSuffix(stdout, "> \n") {
		t.Errorf("stdout = %q, want trailing newline at EOF", stdout)
	}
}

func TestREPL_Help(t *testing.T) {
	_, stdout, _ := runCLI(t, ":help\nquit\n")
	if !strings.Contains(stdout, ":trace") || !strings.Contains(stdout, ":dis") {
		t.Errorf("help = %q", stdout)
	}
}

func TestREPL_LastAndStack(t *testing.T) {
	_, stdout, _ := runCLI(t, ":last\n1 + 2\n:last\n:stack\n1 + nil\n:stack\n")

	for _, want := range []string{
		"Nothing has run yet.\n",
		"== last ==\n",
		"OP_ADD",
		"Stack depth: 0\n",
		"Stack depth: 2\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestREPL_CacheCommands(t *testing.T) {
	_, stdout, _ := runCLI(t, ":cache\nquit\n")
	if !strings.Contains(stdout, "Cache is disabled") {
		t.Errorf("stdout = %q", stdout)
	}

	dir := t.TempDir()
	toml := "[cache]\npath = \"chunks.db\"\n"
	if err := os.WriteFile(filepath.Join(dir, "clox.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	_, stdout, stderr := runCLI(t, "1\n2\n1\n:cache\n:cache clear\n", "-cache")
	if stderr != "" {
		t.Fatalf("stderr = %q", stderr)
	}
	db := filepath.Join(dir, "chunks.db")
	for _, want := range []string{
		"Cache: 2 chunks in " + db + "\n",
		"Cache: 0 chunks in " + db + "\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous directory on cleanup (equivalent of testing.T.Chdir,
// which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}
