// Package version exposes build information set via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// HeartbeatProtocol is the version of the pulse log record format.
// Bump it when the serialized pulse or snapshot shape changes.
const HeartbeatProtocol = "1.0.0"

// Build information. These variables are set at build time via ldflags.
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash        string `json:"commit_hash"`
	BuildTime         string `json:"build_time"`
	Version           string `json:"version"`
	HeartbeatProtocol string `json:"heartbeat_protocol"`
	GoVersion         string `json:"go_version"`
	Platform          string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:        CommitHash,
		BuildTime:         BuildTime,
		Version:           Version,
		HeartbeatProtocol: HeartbeatProtocol,
		GoVersion:         runtime.Version(),
		Platform:          fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("orion %s (heartbeat %s, commit %s, built %s)", i.Version, i.HeartbeatProtocol, i.Short(), i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
