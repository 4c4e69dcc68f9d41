package main

import (
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/oszuidwest/zwfm-camwatch/internal/types"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Build information, set with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// versionInfo returns the build information reported by -version and the status API.
func versionInfo() types.VersionInfo {
	return types.VersionInfo{
		Version:   displayVersion(Version),
		Commit:    Commit,
		BuildTime: displayBuildTime(BuildTime),
	}
}

// displayVersion returns v without the "v" prefix and build metadata when it
// is a valid semantic version, and v unchanged otherwise.
func displayVersion(v string) string {
	canon := canonicalVersion(v)
	if !semver.IsValid(canon) {
		return strings.TrimSpace(v)
	}
	return normalizeVersion(semver.Canonical(canon))
}

// normalizeVersion strips the "v" prefix from a version string.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// canonicalVersion returns the version in canonical semver format.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// displayBuildTime reformats an RFC 3339 build time in UTC.
func displayBuildTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return util.FormatTimestamp(t.UTC()) + " UTC"
}
