package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/hrygo/wingman/internal/version.Version=0.3.0"
var Version = "0.1.0"

// DevVersion is the service current development version.
var DevVersion = Version + "-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// Canonical returns the semver canonical form of version ("v0.1.0"), or the
// input unchanged when it is not a valid semantic version.
func Canonical(version string) string {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return version
	}
	return semver.Canonical(v)
}

// String returns the canonical version with the short commit hash.
func String() string {
	v := Canonical(Version)
	if GitCommit != "" && GitCommit != "unknown" {
		shortCommit := GitCommit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		v = fmt.Sprintf("%s-%s", v, shortCommit)
	}
	return v
}

// StringFull returns the complete version information including build metadata.
func StringFull() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Version=%s", Canonical(Version)))
	if GitCommit != "" && GitCommit != "unknown" {
		parts = append(parts, fmt.Sprintf("Commit=%s", GitCommit))
	}
	if BuildTime != "" && BuildTime != "unknown" {
		parts = append(parts, fmt.Sprintf("BuildTime=%s", BuildTime))
	}
	return strings.Join(parts, " ")
}
