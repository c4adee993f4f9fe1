// Package version holds build metadata, set with -ldflags at release time:
//
//	go build -ldflags "-X github.com/banshee-data/micromag/internal/version.Version=v0.3.0" ./cmd/micromag
package version

var (
	// Version is the release version of micromag
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
