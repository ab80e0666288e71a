// Package diag defines the diagnostic sink threaded through the scanner,
// parser, resolver and interpreter: errors accumulate across a pass rather
// than aborting on the first one, rendered with the exact
// "[line N] Error ...: message" wording this language's tests expect.
package diag

import (
	"fmt"
	"io"
)

// Reporter receives diagnostics as they are discovered. Report is called for
// lexical, syntax and resolution errors; a single implementation latches
// whether any error (and separately, any runtime error) was ever reported so
// the CLI driver can pick the right process exit code.
type Reporter interface {
	// Report records a diagnostic at the given source line. where is either
	// empty (lexical errors and most resolution errors), " at end" or
	// " at '<lexeme>'" (syntax errors, and the resolver's duplicate
	// declaration error), following the exact wording the test suite checks.
	Report(line int, where, message string)

	// RuntimeError records the single runtime error that aborted evaluation.
	RuntimeError(err error)

	HadError() bool
	HadRuntimeError() bool
	Reset()
}

// StdReporter writes diagnostics to an io.Writer (ordinarily stdio.Stderr)
// using the classic jlox wording, and latches the two "had an error" flags
// the CLI uses to select an exit code.
type StdReporter struct {
	Out io.Writer

	hadError        bool
	hadRuntimeError bool
}

var _ Reporter = (*StdReporter)(nil)

func (r *StdReporter) Report(line int, where, message string) {
	fmt.Fprintf(r.Out, "[line %d] Error%s: %s\n", line, where, message)
	r.hadError = true
}

func (r *StdReporter) RuntimeError(err error) {
	fmt.Fprintln(r.Out, err.Error())
	r.hadRuntimeError = true
}

func (r *StdReporter) HadError() bool        { return r.hadError }
func (r *StdReporter) HadRuntimeError() bool { return r.hadRuntimeError }

func (r *StdReporter) Reset() {
	r.hadError = false
	r.hadRuntimeError = false
}
