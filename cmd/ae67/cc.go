package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/compile"
)

func newCompileCmd() *cobra.Command {
	var (
		t      targetFlags
		output string
	)

	cmd := &cobra.Command{
		Use:     "compile <source.pp>",
		Aliases: []string{"cc"},
		Short: "Run the compiler front end: lex/parse a translation unit and lower it to assembly text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			data, err := os.ReadFile(src)
			if err != nil {
				return fail(2, "cc: %v", err)
			}

			p := compile.NewParser(string(data))
			prog := p.ParseProgram()
			if errs := p.Errors(); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(os.Stderr, "cc: %v\n", e)
				}
				return fail(1, "cc: %d parse error(s) in %s", len(errs), src)
			}

			target := arch.Target{Arch: t.resolve()}
			asm, d, err := compile.Generate(prog, target, src)
			if d != nil && d.ErrorCount() > 0 {
				fmt.Fprint(os.Stderr, d.Report(isTTY()))
			}
			if err != nil {
				return fail(1, "cc: %v", err)
			}

			outPath := output
			if outPath == "" {
				outPath = src + "." + target.Arch.String() + ".s"
			}
			if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
				return fail(1, "cc: writing %s: %v", outPath, err)
			}
			if verboseMode {
				fmt.Fprintf(os.Stderr, "cc: wrote %s\n", outPath)
			}
			return nil
		},
	}

	t.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "output assembly path")
	cmd.Flags().Int("fmax-exceptions", 10, "per-file diagnostic cap (reserved; the front end is a single-pass substitution scheme with no exception-unwinding phase)")

	return cmd
}
