package driver

import (
	"strings"

	"github.com/xyproto/env/v2"
)

// Env-var overrides for the driver's stage configuration, read once at
// CLI startup and layered underneath any explicit flag the user
// passes, centralized behind github.com/xyproto/env/v2 instead of raw
// os.Getenv so every knob gets the same typed-default handling.
const (
	envVerbose     = "AE67_VERBOSE"
	envMaxErrors   = "AE67_MAX_ERRORS"
	envIncludeDirs = "AE67_INCLUDE_DIRS" // colon-separated, like $PATH
	envWorkingDir  = "AE67_WORKING_DIR"
)

// VerboseFromEnv reports whether AE67_VERBOSE requests tracing,
// independent of the CLI's -verbose flag (either may enable it).
func VerboseFromEnv() bool {
	return env.Bool(envVerbose)
}

// MaxErrorsFromEnv returns AE67_MAX_ERRORS, or fallback when unset,
// layered beneath the CLI's -fmax-exceptions flag.
func MaxErrorsFromEnv(fallback int) int {
	return env.Int(envMaxErrors, fallback)
}

// IncludeDirsFromEnv splits AE67_INCLUDE_DIRS on ':' into a directory
// list, appended after any -include-dir flags the CLI already
// collected (flags take priority by coming first in the merged list).
func IncludeDirsFromEnv() []string {
	raw := env.Str(envIncludeDirs)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ":")
}

// WorkingDirFromEnv returns AE67_WORKING_DIR, or fallback when unset.
func WorkingDirFromEnv(fallback string) string {
	return env.Str(envWorkingDir, fallback)
}
