package driver

import (
	"os"
	"testing"

	"github.com/xyproto/ae67/internal/arch"
)

func TestPipelineValidTransitions(t *testing.T) {
	p := NewPipeline()
	for _, stage := range []Stage{StagePreprocess, StageCompile, StageAssemble, StageLink, StageComplete} {
		p.AdvanceTo(stage)
	}
	if p.CurrentStage() != StageComplete {
		t.Fatalf("got stage %s, want complete", p.CurrentStage())
	}
}

func TestPipelineInvalidTransitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected AdvanceTo to panic on an out-of-order transition")
		}
	}()
	p := NewPipeline()
	p.AdvanceTo(StageLink)
}

func TestValidateStagePanicsAtWrongStage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected ValidateStage to panic when called at the wrong stage")
		}
	}()
	p := NewPipeline()
	p.ValidateStage(StageCompile, "emit assembly")
}

func TestNewStageContextDefaults(t *testing.T) {
	ctx := NewStageContext("main.src", arch.Target{Arch: arch.AMD64})
	if ctx.MaxErrors != 10 {
		t.Fatalf("got MaxErrors %d, want 10", ctx.MaxErrors)
	}
	if ctx.Defines == nil {
		t.Fatal("expected a non-nil Defines map")
	}
}

func TestIncludeDirsFromEnvSplitsOnColon(t *testing.T) {
	t.Setenv("AE67_INCLUDE_DIRS", "/usr/include:/opt/ae67/include")
	dirs := IncludeDirsFromEnv()
	if len(dirs) != 2 || dirs[0] != "/usr/include" || dirs[1] != "/opt/ae67/include" {
		t.Fatalf("got %v, want [/usr/include /opt/ae67/include]", dirs)
	}
}

func TestIncludeDirsFromEnvEmptyWhenUnset(t *testing.T) {
	os.Unsetenv("AE67_INCLUDE_DIRS")
	if dirs := IncludeDirsFromEnv(); dirs != nil {
		t.Fatalf("got %v, want nil", dirs)
	}
}

func TestMaxErrorsFromEnvFallback(t *testing.T) {
	os.Unsetenv("AE67_MAX_ERRORS")
	if got := MaxErrorsFromEnv(7); got != 7 {
		t.Fatalf("got %d, want fallback 7", got)
	}
}

func TestWorkingDirFromEnvFallback(t *testing.T) {
	os.Unsetenv("AE67_WORKING_DIR")
	if got := WorkingDirFromEnv("."); got != "." {
		t.Fatalf("got %q, want fallback \".\"", got)
	}
}
