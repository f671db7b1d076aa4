// Package version carries build metadata injected through ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	version, commit := Version, GitCommit
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return version, commit, BuildDate
}

// String formats the build metadata on one line.
func String() string {
	version, commit, date := Info()
	return fmt.Sprintf("tallyocr %s (commit %s, built %s, %s)", version, commit, date, runtime.Version())
}
