package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Binary name, used for the logger group, kong and default directories.
const Name = "cdc"

const (

	// Placeholder reported for build variables that were not injected.
	undefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	localBuild = "(local)"

	// Stage that is omitted from version strings.
	releaseStage = "main"
)

// Injected with -ldflags "-X github.com/cruciblehq/cdc/internal.version=...".
var (
	version   = "" // Release version, with or without a "v" prefix.
	stage     = "" // Branch or stage the binary was built from.
	gitCommit = "" // Commit hash.

	rawQuiet   = "false" // Default for quiet mode.
	rawDebug   = "false" // Default for debug mode.
	rawVerbose = "false" // Default for verbose mode.
)

// Returns the release version without its "v" prefix, or "(undefined)".
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return undefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the lowercased build stage, or "(undefined)".
func Stage() string {
	s := strings.ToLower(strings.TrimSpace(stage))
	if s == "" {
		return undefined
	}
	return s
}

// Returns the commit hash, or "(undefined)".
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return undefined
	}
	return c
}

// Whether any of the release variables were left unset.
func IsLocal() bool {
	for _, v := range []string{version, stage, gitCommit} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns "<version>[+<stage>] <commit> [<arch>]", or "(local)".
//
// The stage suffix is dropped for release builds from the main branch.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}

	suffix := ""
	if s := Stage(); s != releaseStage {
		suffix = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), suffix, GitCommit(), runtime.GOARCH)
}
