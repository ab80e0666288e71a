// Package maincmd implements the loxi command line: argument parsing,
// REPL/file-run dispatch and exit-code selection, built around a
// mainer.Parser-driven Cmd struct handed a mainer.Stdio bundle, returning a
// mainer.ExitCode. mainer.CancelOnSignal wires Ctrl-C into a context.Context
// that the REPL loop checks between lines.
package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/loxi/internal/diag"
	"github.com/loxlang/loxi/lang/parser"
	"github.com/loxlang/loxi/lang/resolver"
	"github.com/loxlang/loxi/lang/runtime"
	"github.com/loxlang/loxi/lang/scanner"
)

const binName = "loxi"

var (
	shortUsage = fmt.Sprintf("usage: %s [script]\n", binName)

	longUsage = fmt.Sprintf(`usage: %s [script]
       %[1]s -h|--help
       %[1]s -v|--version

Tree-walking interpreter for the Lox programming language.

With no script argument, %[1]s starts an interactive prompt that reads and
executes one line at a time until end of input. With one script argument,
it reads and executes that file once. More than one argument prints this
usage and exits successfully.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the loxi command, driven by mainer.Parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}
func (c *Cmd) Validate() error            { return nil }

// Main parses args, dispatches to the REPL or a single file run, and
// returns the process exit code: 0 on success, 65 on a scan/parse/resolve
// error, 70 on a runtime error.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	switch len(c.args) {
	case 0:
		return mainer.ExitCode(runPrompt(ctx, stdio))
	case 1:
		return mainer.ExitCode(runFile(ctx, stdio, c.args[0]))
	default:
		fmt.Fprint(stdio.Stdout, shortUsage)
		return mainer.Success
	}
}

// run scans, parses, resolves and interprets source against interp,
// reporting diagnostics to rep, and returns the exit code this one run
// contributes: 0, 65 or 70.
func run(interp *runtime.Interpreter, rep diag.Reporter, source string) int {
	toks := scanner.New(source, rep).ScanTokens()
	stmts := parser.New(toks, rep).Parse()
	if rep.HadError() {
		return 65
	}

	locals := resolver.New(rep).Resolve(stmts)
	if rep.HadError() {
		return 65
	}

	interp.Resolve(locals)
	interp.Interpret(stmts, rep)
	if rep.HadRuntimeError() {
		return 70
	}
	return 0
}

func runFile(ctx context.Context, stdio mainer.Stdio, path string) int {
	if ctx.Err() != nil {
		return 0
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return 1
	}

	rep := &diag.StdReporter{Out: stdio.Stderr}
	interp := runtime.New(stdio.Stdout)
	return run(interp, rep, string(src))
}

// runPrompt runs an interactive REPL: one line is one program. A line's
// errors are reported but never end the session; only end of input, or
// ctx being cancelled (a Ctrl-C delivered between lines), does, always
// with exit code 0, matching classic jlox's runPrompt.
func runPrompt(ctx context.Context, stdio mainer.Stdio) int {
	interp := runtime.New(stdio.Stdout)
	scan := bufio.NewScanner(stdio.Stdin)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scan.Scan() {
			lines <- scan.Text()
		}
	}()

	for {
		fmt.Fprint(stdio.Stdout, "> ")
		select {
		case <-ctx.Done():
			return 0
		case line, ok := <-lines:
			if !ok {
				return 0
			}
			rep := &diag.StdReporter{Out: stdio.Stderr}
			run(interp, rep, line)
		}
	}
}
