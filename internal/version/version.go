/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package version exposes build-time identity, set via ldflags at link
// time and otherwise defaulting to dev/unknown values.
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

// GetBuildInfo returns the build identity as a string map, the shape
// cmd/cepengine prints for `cepengine version`.
func GetBuildInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
		"go_version": GoVersion,
		"platform":   Platform,
	}
}

// GetBuildTime parses BuildTime as RFC3339, falling back to the current
// time when it was never set by ldflags or fails to parse.
func GetBuildTime() time.Time {
	if BuildTime == "unknown" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		return t
	}
	return time.Now()
}
