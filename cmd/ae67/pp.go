package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/driver"
	"github.com/xyproto/ae67/internal/preprocess"
)

func newPreprocessCmd() *cobra.Command {
	var (
		includeDirs []string
		workingDir  string
		defines     []string
		output      string
	)

	cmd := &cobra.Command{
		Use:     "preprocess <source>",
		Aliases: []string{"pp"},
		Short: "Run the preprocessor stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			f, err := os.Open(src)
			if err != nil {
				return fail(2, "pp: %v", err)
			}
			defer f.Close()

			defs := map[string]string{}
			for _, kv := range defines {
				name, value, _ := strings.Cut(kv, "=")
				defs[name] = value
			}

			opts := preprocess.Options{
				IncludeDirs: append(append([]string{}, includeDirs...), driver.IncludeDirsFromEnv()...),
				WorkingDir:  driver.WorkingDirFromEnv(workingDir),
				Defines:     defs,
				SourceName:  src,
			}
			out, d, err := preprocess.Preprocess(opts, f)
			if d != nil && (d.ErrorCount() > 0 || len(out) == 0) {
				fmt.Fprint(os.Stderr, d.Report(isTTY()))
			}
			if err != nil {
				return fail(1, "pp: %v", err)
			}

			outPath := output
			if outPath == "" {
				outPath = src + ".pp"
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fail(1, "pp: writing %s: %v", outPath, err)
			}
			if verboseMode {
				fmt.Fprintf(os.Stderr, "pp: wrote %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&includeDirs, "include-dir", nil, "add a directory to the include search list")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "set the preprocessor's working directory")
	cmd.Flags().StringArrayVar(&defines, "def", nil, "seed a macro: -def NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&output, "output", "", "output file path (default <source>.pp)")

	return cmd
}
