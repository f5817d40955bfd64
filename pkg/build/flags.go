// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the insync binary at link
// time. Release builds inject it with:
//
//	go build -ldflags "-X insync/pkg/build.buildName=insync \
//	    -X insync/pkg/build.buildVersion=0.3.0 \
//	    -X insync/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X insync/pkg/build.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Development builds run with the defaults below; Initialize reports which
// flag is missing so the caller can decide whether that matters.
package build

import "fmt"

// Info describes the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the one-line version banner used by the CLI and the logs.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:    "insync",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies the ldflags variables into the build info. It returns an
// error naming the first missing flag and leaves the defaults untouched.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildInfo.Name = buildName
	buildInfo.Time = buildTime
	buildInfo.Commit = buildCommit
	buildInfo.Version = buildVersion

	return nil
}

// Get returns the current build information.
func Get() *Info {
	return buildInfo
}
