package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xyproto/ae67/internal/arch"
	"github.com/xyproto/ae67/internal/container/pef"
	"github.com/xyproto/ae67/internal/link"
)

// TestBuildPipelineEmptyExecutable drives a minimal program through
// preprocess -> compile -> assemble -> link exactly as the build
// subcommand does, and checks the S1 empty-executable shape: a single
// entrypoint command plus the five synthetic headers.
func TestBuildPipelineEmptyExecutable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.src")
	if err := os.WriteFile(src, []byte("func main {\n halt\n}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	target := arch.Target{Arch: arch.AMD64, SubCPU: arch.SubCPUGeneric}
	var log bytes.Buffer
	objPath, err := buildOne(src, target, nil, "", map[string]string{}, &log)
	if err != nil {
		t.Fatalf("buildOne: %v (log: %s)", err, log.String())
	}
	defer os.Remove(objPath)

	objs, err := link.Intake([]string{objPath})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}

	linkOpts := link.Options{Target: target, Kind: pef.KindExec, BuildEpoch: 1700000000}
	result, err := link.Link(linkOpts, objs)
	if err != nil {
		t.Fatalf("Link: %v (%s)", err, result.Diag.Report(false))
	}

	if got := len(result.Image.Commands); got != 6 {
		t.Fatalf("pef.count = %d, want 6", got)
	}

	if _, ok := pef.FindEntryPoint(result.Image.Commands); !ok {
		t.Fatal("expected to find the entrypoint command")
	}

	for _, c := range result.Image.Commands {
		if bytes.Contains([]byte(c.Name), []byte(":UndefinedSymbol:")) {
			t.Fatalf("undefined-symbol command %q leaked into written output", c.Name)
		}
	}
}
