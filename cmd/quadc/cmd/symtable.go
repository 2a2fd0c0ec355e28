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

var symtableCmd = &cobra.Command{
	Use:   "symtable [file]",
	Short: "Compile a source file and print only its symbol-table trace",
	Long: `symtable runs the same semantic core as build, but writes the
quad stream to a throwaway buffer and prints only the symbol-table trace
to stdout. Useful for inspecting scoping and type-inference decisions
without digging through the .sym artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymtable,
}

func init() {
	rootCmd.AddCommand(symtableCmd)
}

func runSymtable(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var quadBuf strings.Builder
	bag := diag.NewBag(os.Stderr, nil, nil)
	em := emit.New(&quadBuf)
	comp := compiler.New(em, bag)

	p := parser.New(string(content), comp)
	parseErr := p.Parse()

	lastLine := strings.Count(string(content), "\n") + 1
	comp.LogSymbolTable(os.Stdout, lastLine)

	if parseErr != nil {
		exitWithError("%s", parseErr.Error())
	}
	return nil
}
