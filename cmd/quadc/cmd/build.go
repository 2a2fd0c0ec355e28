package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadlang/quadc/internal/compiler"
	"github.com/quadlang/quadc/internal/diag"
	"github.com/quadlang/quadc/internal/emit"
	"github.com/quadlang/quadc/internal/parser"
)

var buildVerbose bool

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile a source file to its .sym and .quad artifacts",
	Long: `build runs a source file through the semantic core and writes two
artifacts next to it: <base>.quad, the emitted stack-IR instruction
stream, and <base>.sym, the symbol-table trace.

A fatal semantic error truncates both artifacts and exits non-zero;
syntax errors are counted and reported on stderr but do not stop
compilation.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "verbose output")
}

func artifactPaths(filename string) (symPath, quadPath string) {
	base := strings.TrimSuffix(filename, ".quad")
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	return base + ".sym", base + ".quad"
}

func runBuild(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	symPath, quadPath := artifactPaths(filename)
	if buildVerbose {
		fmt.Fprintf(os.Stderr, "Compiling %s -> %s, %s\n", filename, quadPath, symPath)
	}

	sym, err := diag.NewArtifact(symPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", symPath, err)
	}
	defer sym.Close()

	quad, err := diag.NewArtifact(quadPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", quadPath, err)
	}
	defer quad.Close()

	bag := diag.NewBag(os.Stderr, sym, quad)
	em := emit.New(quad)
	comp := compiler.New(em, bag)

	p := parser.New(string(content), comp)
	parseErr := p.Parse()
	if parseErr != nil {
		exitWithError("%s", parseErr.Error())
	}

	lastLine := strings.Count(string(content), "\n") + 1
	comp.LogSymbolTable(sym, lastLine)

	if bag.SyntaxErrors > 0 {
		exitWithError("compilation produced %d syntax error(s)", bag.SyntaxErrors)
	}
	return nil
}
