// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/onenight/partyclient/internal/version.Version=1.0.0 \
//	                   -X github.com/onenight/partyclient/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"
)

// Product names the client in the User-Agent header.
const Product = "partyclient"

// String returns a formatted version string for -version output.
func String() string {
	return fmt.Sprintf("%s %s (%s, %s)", Product, Version, commit(), goVersion())
}

// UserAgent is sent with the WebSocket handshake.
func UserAgent() string {
	return Product + "/" + Version
}

// commit falls back to the VCS revision stamped by the go tool.
func commit() string {
	if Commit != "unknown" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return Commit
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}
