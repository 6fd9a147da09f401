package runtime

import (
	"fmt"
	goruntime "runtime"
)

var (
	// Version is the semantic version (set via -ldflags)
	Version = "0.0.0-dev"

	// GitCommit is the short git commit hash (set via -ldflags)
	GitCommit = "dev"

	// BuildTime is the UTC build timestamp (set via -ldflags)
	BuildTime = "unknown"
)

// VersionString returns the formatted version string for display.
func VersionString() string {
	return fmt.Sprintf("ftd version %s (%s) built %s with %s", Version, GitCommit, BuildTime, goruntime.Version())
}

// Generator is the value of the page's generator meta tag.
func Generator() string {
	return "ftd " + Version
}

// Info is the build information of the binary.
type Info struct {
	Version   string `yaml:"version"`
	Commit    string `yaml:"commit"`
	BuildTime string `yaml:"build_time"`
	Go        string `yaml:"go"`
	Generator string `yaml:"generator"`
}

// BuildInfo returns the build information of the binary.
func BuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		Go:        goruntime.Version(),
		Generator: Generator(),
	}
}
