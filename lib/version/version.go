// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/bureau-foundation/graphtrace/lib/version.Version=...".
var (
	// Version is the release version reported in every report header.
	Version = "0.1.0-dev"

	// GitCommit is the short SHA of the build. When left at "unknown",
	// Info falls back to the VCS stamp the Go toolchain embeds.
	GitCommit = "unknown"

	// GitDirty is "true" for builds with uncommitted changes.
	GitDirty = "false"
)

// Agent returns the agent identifier carried in every report header
// and in the upload User-Agent: "graphtrace <version>".
func Agent() string {
	return "graphtrace " + Version
}

// Info returns the --version line: version, commit, and toolchain.
func Info() string {
	commit, dirty := GitCommit, GitDirty == "true"
	if commit == "unknown" {
		commit, dirty = vcsStamp()
	}
	marker := ""
	if dirty {
		marker = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s %s/%s)", Version, commit, marker,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func vcsStamp() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", false
	}
	commit, dirty := "unknown", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, dirty
}
