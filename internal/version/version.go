// Package version provides build-time version information.
//
// Set at build time via:
//
//	go build -ldflags "-X github.com/mfateev/sandbox-agent/internal/version.Version=v0.3.0 -X github.com/mfateev/sandbox-agent/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import "fmt"

// Version is the release tag, set at build time via ldflags.
var Version = "dev"

// GitCommit is the short git commit hash, set at build time via ldflags.
var GitCommit = "unknown"

// String formats the version for the version command and the MCP server
// implementation info.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
