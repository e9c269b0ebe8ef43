// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name used in version strings and user agents.
const Name = "griptape"

// These are set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// commit returns the ldflags commit, falling back to the VCS revision
// recorded by the Go toolchain.
func commit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return Commit
}

// Info returns a one-line version summary.
func Info() string {
	c := commit()
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s %s (%s) built on %s with %s", Name, Version, c, BuildDate, runtime.Version())
}

// UserAgent returns the User-Agent sent to hosted model APIs.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", Name, Version, runtime.GOOS, runtime.GOARCH)
}

// Full returns all version details.
func Full() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s/%s",
		Version,
		commit(),
		BuildDate,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}
