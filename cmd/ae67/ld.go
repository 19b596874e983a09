package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/link"
)

func newLinkCmd() *cobra.Command {
	var (
		t      targetFlags
		output string
		fat    bool
		dylib  bool
	)

	cmd := &cobra.Command{
		Use:     "link <object...>",
		Aliases: []string{"ld"},
		Short: "Run the linker stage: merge AE objects into a PEF image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objs, err := link.Intake(args)
			if err != nil {
				return fail(2, "ld64: %v", err)
			}

			kind := pef.KindExec
			if dylib {
				kind = pef.KindDylib
			}

			opts := link.Options{
				Target:     arch.Target{Arch: t.resolve()},
				Kind:       kind,
				Fat:        fat,
				BuildEpoch: buildEpoch(),
			}

			result, err := link.Link(opts, objs)
			if result != nil && result.Diag != nil {
				fmt.Fprint(os.Stderr, result.Diag.Report(isTTY()))
			}
			if err != nil {
				return fail(1, "ld64: %v", err)
			}

			outPath := output
			if outPath == "" {
				outPath = "a.out"
			}
			out, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o755)
			if err != nil {
				return fail(1, "ld64: creating %s: %v", outPath, err)
			}
			if err := link.Write(out, result.Image); err != nil {
				out.Close()
				os.Remove(outPath)
				return fail(1, "ld64: writing %s: %v", outPath, err)
			}
			if err := out.Close(); err != nil {
				os.Remove(outPath)
				return fail(1, "ld64: closing %s: %v", outPath, err)
			}
			if verboseMode {
				fmt.Fprintf(os.Stderr, "ld64: wrote %s\n", outPath)
			}
			return nil
		},
	}

	t.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "output image path (default a.out)")
	cmd.Flags().BoolVar(&fat, "fat", false, "enable FAT binary output (bitwise-OR the input architectures)")
	cmd.Flags().BoolVar(&dylib, "dylib", false, "emit a shared image instead of an executable")

	return cmd
}
