// Command ae67 is the toolchain driver: a single binary exposing the
// preprocessor, compiler front end, assembler, and linker stages both
// individually and chained end to end, through a cobra subcommand tree
// rather than one flat flag.Parse() over a single mode flag.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/driver"
)

const versionString = "ae67 0.1.0"

var verboseMode bool

func main() {
	verboseMode = driver.VerboseFromEnv()

	root := &cobra.Command{
		Use:     "ae67",
		Short:   "A self-hosted preprocessor/compiler/assembler/linker toolchain",
		Version: versionString,
	}
	root.SetVersionTemplate(versionString + "\n")
	root.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", verboseMode, "enable informational tracing to stderr (also AE67_VERBOSE)")
	root.SilenceUsage = true

	root.AddCommand(newPreprocessCmd())
	root.AddCommand(newCompileCmd())
	root.AddCommand(newAssembleCmd())
	root.AddCommand(newLinkCmd())
	root.AddCommand(newBuildCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// stageError carries the process exit code assigned to a stage
// failure, alongside the message cobra prints.
type stageError struct {
	code int
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }

func exitCodeFor(err error) int {
	if se, ok := err.(*stageError); ok {
		return se.code
	}
	return 1
}

func fail(code int, format string, args ...interface{}) error {
	return &stageError{code: code, err: fmt.Errorf(format, args...)}
}

// buildEpoch stamps the linker's synthetic BuildEpoch header with the
// current time.
func buildEpoch() int64 { return time.Now().Unix() }

// isTTY reports whether stderr looks like an interactive terminal, for
// diag.Collector's colorized-vs-plain rendering choice.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
