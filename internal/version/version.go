// Package version carries build metadata set with -ldflags, for example
//
//	go build -ldflags "-X github.com/banshee-data/photometric/internal/version.Version=1.2.0"
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for a version command.
func String(program string) string {
	sha := GitSHA
	if len(sha) > 12 {
		sha = sha[:12]
	}
	return fmt.Sprintf("%s version %s (commit %s, built %s)", program, Version, sha, BuildTime)
}
