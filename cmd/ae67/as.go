package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/assemble"
	"github.com/xyproto/ae67/internal/container/ae"
	"github.com/xyproto/ae67/internal/driver"
)

func newAssembleCmd() *cobra.Command {
	var (
		t             targetFlags
		output        string
		binary        bool
		maxExceptions int
	)

	cmd := &cobra.Command{
		Use:     "assemble <source.s>",
		Aliases: []string{"as"},
		Short: "Run the assembler stage: encode assembly text into an AE object or flat binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			f, err := os.Open(src)
			if err != nil {
				return fail(2, "as: %v", err)
			}
			defer f.Close()

			opts := assemble.Options{
				Target:     arch.Target{Arch: t.resolve()},
				FlatBinary: binary,
				MaxErrors:  driver.MaxErrorsFromEnv(maxExceptions),
				SourceName: src,
			}
			result, err := assemble.Assemble(opts, f)
			if result != nil && result.Diag != nil && result.Diag.ErrorCount() > 0 {
				fmt.Fprint(os.Stderr, result.Diag.Report(isTTY()))
			}
			if err != nil {
				return fail(1, "as: %v", err)
			}

			outPath := output
			if outPath == "" {
				if binary {
					outPath = src + ".bin"
				} else {
					outPath = src + ".obj"
				}
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fail(1, "as: creating %s: %v", outPath, err)
			}

			var writeErr error
			if binary {
				_, writeErr = out.Write(result.Flat)
			} else {
				writeErr = ae.Encode(out, *result.Object)
			}
			if writeErr != nil {
				out.Close()
				os.Remove(outPath)
				return fail(1, "as: writing %s: %v", outPath, writeErr)
			}
			if err := out.Close(); err != nil {
				os.Remove(outPath)
				return fail(1, "as: closing %s: %v", outPath, err)
			}
			if verboseMode {
				fmt.Fprintf(os.Stderr, "as: wrote %s\n", outPath)
			}
			return nil
		},
	}

	t.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "output object/binary path")
	cmd.Flags().BoolVar(&binary, "binary", false, "emit a flat binary instead of an AE object (public_segment/extern_segment become errors)")
	cmd.Flags().IntVar(&maxExceptions, "fmax-exceptions", 10, "per-file diagnostic cap")

	return cmd
}
