// Package version reports the build version of the running binary.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Set at build time with -ldflags "-X .../shared/version.Version=1.4.0 -X .../shared/version.Commit=abc123".
var (
	Version = "dev"
	Commit  = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Release bool   `json:"release"`
}

// Current describes this build. Release is true only for a valid semantic version.
func Current() Info {
	v := Normalize(Version)
	return Info{
		Version: v,
		Commit:  Commit,
		Release: semver.IsValid(v) && semver.Prerelease(v) == "",
	}
}

// Normalize adds the "v" prefix to semantic versions. Anything else is returned trimmed.
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}
	if semver.IsValid("v" + version) {
		return "v" + version
	}
	return version
}
