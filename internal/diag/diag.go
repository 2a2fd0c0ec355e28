// Package diag owns the three diagnostic channels described in section 4.7
// and 7 of the spec (syntax errors, fatal semantic errors, semantic
// warnings) plus the two output artifacts a compilation produces. It is the
// structured replacement for the original's macro-based
// semantic_error/semantic_warning pair, which reached into global parser
// state (yylineno, yytext) and called abort() directly.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Fatal is returned by Bag.Error to signal the caller must unwind
// immediately; the Bag has already truncated the output artifacts.
type Fatal struct {
	Message string
	Line    int
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("SEM-E(L#%d): %s", f.Line, f.Message)
}

// Artifact is one of the two truncatable output streams (.sym or .quad).
type Artifact struct {
	path string
	file *os.File
}

// NewArtifact creates (truncating) the file at path and keeps it open for
// writing.
func NewArtifact(path string) (*Artifact, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Artifact{path: path, file: f}, nil
}

func (a *Artifact) Write(p []byte) (int, error) { return a.file.Write(p) }

// Truncate discards everything written so far, re-opening the file empty.
// This is the Go analogue of the original's abort(), which closed and
// re-opened both ofstreams in truncate mode before exit(1).
func (a *Artifact) Truncate() error {
	if err := a.file.Close(); err != nil {
		return err
	}
	f, err := os.Create(a.path)
	if err != nil {
		return err
	}
	a.file = f
	return nil
}

// Close closes the underlying file.
func (a *Artifact) Close() error { return a.file.Close() }

// Bag collects syntax error counts and warning/error text, and owns the two
// output artifacts so a fatal semantic error can truncate them in one place.
type Bag struct {
	Stderr       io.Writer
	SyntaxErrors int
	Sym          *Artifact
	Quad         *Artifact
}

// NewBag creates a diagnostics bag writing syntax/semantic messages to
// stderr and owning the given output artifacts.
func NewBag(stderr io.Writer, sym, quad *Artifact) *Bag {
	return &Bag{Stderr: stderr, Sym: sym, Quad: quad}
}

// Syntax reports a recoverable syntax error. It increments the running
// count and never stops compilation, matching spec.md section 7's
// "Syntax error — recoverable, counted, does not stop compilation."
func (b *Bag) Syntax(line int, nearText string) {
	b.SyntaxErrors++
	fmt.Fprintf(b.Stderr, "STX(N#%d): Invalid syntax near '%s' in L#%d\n", b.SyntaxErrors, nearText, line)
}

// Warning reports an advisory semantic warning. Compilation continues.
func (b *Bag) Warning(line int, format string, args ...interface{}) {
	fmt.Fprintf(b.Stderr, "SEM-W(L#%d): %s\n", line, fmt.Sprintf(format, args...))
}

// Error reports a fatal semantic error: it prints the SEM-E line, truncates
// both output artifacts, and returns a *Fatal the caller must propagate
// immediately without any further emission. There is no recovery path once
// a semantic error fires — see spec.md section 7.
func (b *Bag) Error(line int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(b.Stderr, "SEM-E(L#%d): %s\n", line, msg)
	if b.Sym != nil {
		_ = b.Sym.Truncate()
	}
	if b.Quad != nil {
		_ = b.Quad.Truncate()
	}
	return &Fatal{Message: msg, Line: line}
}
