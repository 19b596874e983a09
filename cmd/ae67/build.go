package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/assemble"
	"github.com/xyproto/ae67/internal/compile"
	"github.com/xyproto/ae67/internal/container/ae"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/driver"
	"github.com/xyproto/ae67/internal/link"
	"github.com/xyproto/ae67/internal/preprocess"
)

// newBuildCmd wires the full pipeline: for each source file,
// preprocess -> compile -> assemble, each stage's artifact written to
// disk exactly as the driver contract describes ("<file>.pp",
// "<file>.pp.<asmext>", "<file>.obj"); the linker then runs once over
// the collected object set.
func newBuildCmd() *cobra.Command {
	var (
		t           targetFlags
		output      string
		includeDirs []string
		workingDir  string
		defines     []string
		fat         bool
		dylib       bool
		keepTemps   bool
	)

	cmd := &cobra.Command{
		Use:   "build <source...>",
		Short: "Run the full preprocess -> compile -> assemble -> link pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := arch.Target{Arch: t.resolve()}

			defs := map[string]string{}
			for _, kv := range defines {
				name, value, _ := strings.Cut(kv, "=")
				defs[name] = value
			}

			// Independent source files run concurrently, each into its
			// own buffer so one file's diagnostics are never
			// interleaved with another's, then flushed in input order.
			type fileResult struct {
				objPath string
				log     bytes.Buffer
				err     error
			}
			results := make([]fileResult, len(args))

			sem := make(chan struct{}, runtime.NumCPU())
			var wg sync.WaitGroup
			for i, src := range args {
				wg.Add(1)
				sem <- struct{}{}
				go func(i int, src string) {
					defer wg.Done()
					defer func() { <-sem }()
					objPath, err := buildOne(src, target, includeDirs, workingDir, defs, &results[i].log)
					results[i].objPath = objPath
					results[i].err = err
				}(i, src)
			}
			wg.Wait()

			var objPaths []string
			defer func() {
				if keepTemps {
					return
				}
				for _, p := range objPaths {
					os.Remove(p)
				}
			}()

			var firstErr error
			for _, r := range results {
				io.Copy(os.Stderr, &r.log)
				if r.err != nil && firstErr == nil {
					firstErr = r.err
				}
				if r.objPath != "" {
					objPaths = append(objPaths, r.objPath)
				}
			}
			if firstErr != nil {
				return firstErr
			}

			objs, err := link.Intake(objPaths)
			if err != nil {
				return fail(2, "ld64: %v", err)
			}

			kind := pef.KindExec
			if dylib {
				kind = pef.KindDylib
			}
			linkOpts := link.Options{Target: target, Kind: kind, Fat: fat, BuildEpoch: buildEpoch()}

			result, err := link.Link(linkOpts, objs)
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
	cmd.Flags().StringArrayVar(&includeDirs, "include-dir", nil, "add a directory to the preprocessor's include search list")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "set the preprocessor's working directory")
	cmd.Flags().StringArrayVar(&defines, "def", nil, "seed a macro: -def NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&fat, "fat", false, "enable FAT binary output")
	cmd.Flags().BoolVar(&dylib, "dylib", false, "emit a shared image instead of an executable")
	cmd.Flags().BoolVar(&keepTemps, "keep-temps", false, "keep the intermediate .obj files after linking (the .pp and .s files are always kept)")

	return cmd
}

// buildOne drives one source file through preprocess, compile, and
// assemble, returning the path of the written AE object. All
// diagnostics and verbose tracing go to logw rather than directly to
// os.Stderr, so concurrent callers (one per source file) never
// interleave their output.
func buildOne(src string, target arch.Target, includeDirs []string, workingDir string, defs map[string]string, logw io.Writer) (string, error) {
	p := driver.NewPipeline()
	p.AdvanceTo(driver.StagePreprocess)

	f, ferr := os.Open(src)
	if ferr != nil {
		return "", fail(2, "pp: %v", ferr)
	}
	ppOut, d, perr := preprocess.Preprocess(preprocess.Options{
		IncludeDirs: append(append([]string{}, includeDirs...), driver.IncludeDirsFromEnv()...),
		WorkingDir:  driver.WorkingDirFromEnv(workingDir),
		Defines:     defs,
		SourceName:  src,
	}, f)
	f.Close()
	if d != nil && d.ErrorCount() > 0 {
		fmt.Fprint(logw, d.Report(isTTY()))
	}
	if perr != nil {
		return "", fail(1, "pp: %v", perr)
	}
	ppPath := src + ".pp"
	if err := os.WriteFile(ppPath, ppOut, 0o644); err != nil {
		return "", fail(1, "pp: writing %s: %v", ppPath, err)
	}
	if verboseMode {
		fmt.Fprintf(logw, "pp: wrote %s\n", ppPath)
	}

	p.AdvanceTo(driver.StageCompile)
	parser := compile.NewParser(string(ppOut))
	prog := parser.ParseProgram()
	if errs := parser.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(logw, "cc: %v\n", e)
		}
		return "", fail(1, "cc: %d parse error(s) in %s", len(errs), src)
	}
	asmText, cd, cerr := compile.Generate(prog, target, src)
	if cd != nil && cd.ErrorCount() > 0 {
		fmt.Fprint(logw, cd.Report(isTTY()))
	}
	if cerr != nil {
		return "", fail(1, "cc: %v", cerr)
	}
	asmPath := ppPath + "." + target.Arch.String() + ".s"
	if err := os.WriteFile(asmPath, []byte(asmText), 0o644); err != nil {
		return "", fail(1, "cc: writing %s: %v", asmPath, err)
	}
	if verboseMode {
		fmt.Fprintf(logw, "cc: wrote %s\n", asmPath)
	}

	p.AdvanceTo(driver.StageAssemble)
	asmOpts := assemble.Options{Target: target, MaxErrors: driver.MaxErrorsFromEnv(10), SourceName: asmPath}
	result, aerr := assemble.Assemble(asmOpts, bytes.NewReader([]byte(asmText)))
	if result != nil && result.Diag != nil && result.Diag.ErrorCount() > 0 {
		fmt.Fprint(logw, result.Diag.Report(isTTY()))
	}
	if aerr != nil {
		return "", fail(1, "as: %v", aerr)
	}
	objPath := src + ".obj"
	out, oerr := os.Create(objPath)
	if oerr != nil {
		return "", fail(1, "as: creating %s: %v", objPath, oerr)
	}
	if err := ae.Encode(out, *result.Object); err != nil {
		out.Close()
		os.Remove(objPath)
		return "", fail(1, "as: writing %s: %v", objPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(objPath)
		return "", fail(1, "as: closing %s: %v", objPath, err)
	}
	if verboseMode {
		fmt.Fprintf(logw, "as: wrote %s\n", objPath)
	}

	p.AdvanceTo(driver.StageLink)
	return objPath, nil
}
